// Package tessellate triangulates every face of a packed polygon mesh.
// Faces are independent, so they are clipped concurrently on a bounded
// worker pool and stitched back together in their original order.
package tessellate

import (
	"context"
	"log"
	"runtime"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/polygon"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Options controls a Tessellate call.
type Options struct {
	Polygon polygon.Options
	// Workers bounds the number of faces triangulated at once.
	// Zero or less means GOMAXPROCS.
	Workers int
	// Logger receives one line per face that could not be triangulated.
	// Nil disables logging.
	Logger *log.Logger
}

// DefaultOptions returns best-ear clipping on GOMAXPROCS workers.
func DefaultOptions() Options {
	p := polygon.DefaultOptions()
	p.Policy = polygon.PolicyBestEar
	return Options{
		Polygon: p,
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Fallback records a face that was kept as its original loop.
type Fallback struct {
	Face     int    `json:"face"`
	Vertices int    `json:"vertices"`
	Err      error  `json:"-"`
	Reason   string `json:"reason"` // Err.Error()
}

// Report summarizes a Tessellate call.
type Report struct {
	Faces        int        `json:"faces"`        // input loops
	Triangles    int        `json:"triangles"`    // output loops that are triangles
	Triangulated int        `json:"triangulated"` // input loops with more than 3 vertices that were clipped
	Fallbacks    []Fallback `json:"fallbacks,omitempty"`
}

// Tessellate returns a copy of m whose polygons have been split into
// triangles. Triangles pass through unchanged. A face that cannot be
// triangulated (a degenerate facet, or a ring where clipping stalls) is
// kept as its original loop and recorded in the report, so the output is
// not guaranteed to be fully triangulated when Report.Fallbacks is non-empty.
//
// The input is never modified. A malformed face buffer fails the whole
// call, as does cancellation of ctx.
func Tessellate(ctx context.Context, m *kernel.Mesh, opts Options) (*kernel.Mesh, *Report, error) {
	if err := opts.Polygon.Validate(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "tessellate")
	}
	loops, err := m.Loops()
	if err != nil {
		return nil, nil, errors.Wrap(err, "tessellate")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([][]int32, len(loops))
	failures := make([]error, len(loops))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, loop := range loops {
		if len(loop) == 3 {
			results[i] = kernel.AppendLoop(nil, loop...)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tris, err := polygon.Triangulate(m.Coords, loop, opts.Polygon)
			if err != nil {
				results[i] = kernel.AppendLoop(nil, loop...)
				failures[i] = err
				return nil
			}
			results[i] = tris
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, errors.Wrap(err, "tessellate")
	}

	report := &Report{Faces: len(loops)}
	for i, loop := range loops {
		if failures[i] != nil {
			report.Fallbacks = append(report.Fallbacks, Fallback{
				Face:     i,
				Vertices: len(loop),
				Err:      failures[i],
				Reason:   failures[i].Error(),
			})
			if opts.Logger != nil {
				opts.Logger.Printf("failed to triangulate face %d with %d vertices: %v", i, len(loop), failures[i])
			}
			continue
		}
		if len(loop) > 3 {
			report.Triangulated++
		}
	}

	out := &kernel.Mesh{
		Coords: append([]float64(nil), m.Coords...),
		Faces:  lo.Flatten(results),
		Name:   m.Name,
	}
	report.Triangles = out.FaceCount() - len(report.Fallbacks)
	return out, report, nil
}
