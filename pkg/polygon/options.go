// Package polygon is the geometry kernel for single facets of a packed
// mesh: Newell normal estimation, the convexity and point-in-triangle
// predicates, and ear-clipping triangulation of simple, possibly
// non-convex and mildly non-planar loops.
//
// A loop is the slice of vertex indices of one face, without the leading
// count used in the packed face buffer. Coordinates are the packed
// [x,y,z, x,y,z, ...] buffer of the owning mesh. Nothing in this package
// mutates its inputs.
package polygon

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

const (
	// DefaultEpsilon is the convexity and containment tolerance.
	DefaultEpsilon = 1e-12

	// DefaultNormalTolerance is the smallest accumulated Newell vector
	// length accepted as a non-degenerate facet.
	DefaultNormalTolerance = 1e-10
)

// Policy selects the order in which candidate ears are clipped.
type Policy int

const (
	// PolicyNaive walks the loop in order and clips the first valid ear.
	PolicyNaive Policy = iota
	// PolicyBestEar clips the valid ear with the smallest convexity first.
	PolicyBestEar
)

func (p Policy) String() string {
	switch p {
	case PolicyNaive:
		return "naive"
	case PolicyBestEar:
		return "best"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts "naive" or "best" into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "naive", "":
		return PolicyNaive, nil
	case "best", "best-ear":
		return PolicyBestEar, nil
	}
	return 0, errors.Errorf("unknown clip policy %q, expected naive or best", s)
}

// Options tunes the numeric policy of the kernel. Start from
// DefaultOptions; callers relax Epsilon for ill-conditioned input.
type Options struct {
	// Epsilon is the one-sided tolerance of the predicates. A vertex is
	// an ear candidate when its convexity exceeds Epsilon, and a point is
	// inside a triangle when every edge test is >= -Epsilon.
	Epsilon float64
	// NormalTolerance rejects near-zero-area loops in EstimateNormal.
	NormalTolerance float64
	// Policy selects the clipping order.
	Policy Policy
}

// DefaultOptions returns the tolerances the kernel was tuned with.
func DefaultOptions() Options {
	return Options{
		Epsilon:         DefaultEpsilon,
		NormalTolerance: DefaultNormalTolerance,
		Policy:          PolicyNaive,
	}
}

// Validate rejects negative or non-finite tolerances and unknown policies.
func (o Options) Validate() error {
	if o.Epsilon < 0 || math.IsNaN(o.Epsilon) || math.IsInf(o.Epsilon, 0) {
		return errors.Errorf("polygon: invalid epsilon %v", o.Epsilon)
	}
	if o.NormalTolerance < 0 || math.IsNaN(o.NormalTolerance) || math.IsInf(o.NormalTolerance, 0) {
		return errors.Errorf("polygon: invalid normal tolerance %v", o.NormalTolerance)
	}
	if o.Policy != PolicyNaive && o.Policy != PolicyBestEar {
		return errors.Errorf("polygon: invalid policy %v", o.Policy)
	}
	return nil
}
