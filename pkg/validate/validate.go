// Package validate checks packed meshes in tiers: structure of the face
// buffer, geometry of each facet, and closed-manifold topology.
package validate

import (
	"fmt"
	"math"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/polygon"
	"github.com/pkg/errors"
)

// Severity indicates whether a finding makes the mesh unusable or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks use of the mesh
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Issue codes.
const (
	CodeInvalidOptions = "INVALID_OPTIONS"
	CodeMalformed      = "MALFORMED_MESH"
	CodeEmpty          = "EMPTY_MESH"
	CodeRepeatedVertex = "REPEATED_VERTEX"
	CodeDegenerate     = "DEGENERATE_FACET"
	CodeNonPlanar      = "NON_PLANAR_FACET"
	CodeNotManifold    = "NOT_MANIFOLD"
)

// Issue describes a single validation finding.
type Issue struct {
	Code     string   `json:"code"`
	Face     int      `json:"face"` // loop index, -1 for mesh-level findings
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i Issue) Error() string {
	if i.Face < 0 {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s: face %d: %s", i.Severity, i.Code, i.Face, i.Message)
}

// Options configures Validate.
type Options struct {
	// PlanarityTolerance is the largest distance a loop vertex may sit
	// from its facet's mean plane before a NON_PLANAR_FACET warning.
	PlanarityTolerance float64
	// Polygon supplies the normal tolerance for degeneracy checks.
	Polygon polygon.Options
	// SkipTopology disables the closed-manifold tier, for meshes that
	// are open by construction.
	SkipTopology bool
}

// DefaultOptions returns the options used by the command line tool.
func DefaultOptions() Options {
	return Options{
		PlanarityTolerance: 1e-6,
		Polygon:            polygon.DefaultOptions(),
	}
}

// Validate runs all tiers and returns blocking errors and advisory
// warnings separately. Geometry and topology are only checked once the
// face buffer is structurally sound. It never mutates the mesh.
func Validate(m *kernel.Mesh, opts Options) (errs []Issue, warnings []Issue) {
	if err := checkOptions(opts); err != nil {
		return []Issue{{Code: CodeInvalidOptions, Face: -1, Message: err.Error(), Severity: SeverityError}}, nil
	}

	// Tier 1: structure.
	if err := m.Validate(); err != nil {
		return []Issue{{Code: CodeMalformed, Face: -1, Message: err.Error(), Severity: SeverityError}}, nil
	}
	if len(m.Faces) == 0 {
		warnings = append(warnings, Issue{Code: CodeEmpty, Face: -1, Message: "mesh has no faces", Severity: SeverityWarning})
		return nil, warnings
	}

	// Tier 2: per-facet geometry.
	gErrs, gWarnings := validateGeometry(m, opts)
	errs = append(errs, gErrs...)
	warnings = append(warnings, gWarnings...)

	// Tier 3: topology.
	if !opts.SkipTopology {
		errs = append(errs, validateTopology(m)...)
	}
	return errs, warnings
}

func checkOptions(opts Options) error {
	t := opts.PlanarityTolerance
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return errors.Errorf("invalid planarity tolerance %v", t)
	}
	return opts.Polygon.Validate()
}

// validateGeometry flags repeated consecutive vertices, degenerate facets
// and facets whose vertices stray from the mean plane.
func validateGeometry(m *kernel.Mesh, opts Options) ([]Issue, []Issue) {
	var errs, warnings []Issue

	// Structure was checked by the caller, so the walk cannot fail.
	_ = m.ForEachLoop(func(face int, loop []int32) error {
		for i, v := range loop {
			if next := loop[(i+1)%len(loop)]; v == next {
				warnings = append(warnings, Issue{
					Code:     CodeRepeatedVertex,
					Face:     face,
					Message:  fmt.Sprintf("vertex %d repeated at loop position %d", v, i),
					Severity: SeverityWarning,
				})
				break
			}
		}

		plane, err := polygon.EstimatePlaneTol(m.Coords, loop, opts.Polygon.NormalTolerance)
		if err != nil {
			errs = append(errs, Issue{
				Code:     CodeDegenerate,
				Face:     face,
				Message:  err.Error(),
				Severity: SeverityError,
			})
			return nil
		}

		var worst float64
		for _, v := range loop {
			if d := math.Abs(plane.Distance(m.Vertex(v))); d > worst {
				worst = d
			}
		}
		if worst > opts.PlanarityTolerance {
			warnings = append(warnings, Issue{
				Code:     CodeNonPlanar,
				Face:     face,
				Message:  fmt.Sprintf("vertex %.3g from mean plane, tolerance %.3g", worst, opts.PlanarityTolerance),
				Severity: SeverityWarning,
			})
		}
		return nil
	})

	return errs, warnings
}

func validateTopology(m *kernel.Mesh) []Issue {
	err := CheckManifold(m)
	if err == nil {
		return nil
	}
	face := -1
	var me *ManifoldError
	if errors.As(err, &me) {
		face = me.Face
	}
	return []Issue{{Code: CodeNotManifold, Face: face, Message: err.Error(), Severity: SeverityError}}
}
