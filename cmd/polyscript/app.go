package main

import (
	"context"
	"log"
	"time"

	"github.com/chazu/polycsg/pkg/engine"
	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/kernel/manifold"
	"github.com/chazu/polycsg/pkg/kernel/poly"
	"github.com/chazu/polycsg/pkg/kernel/sdfx"
	"github.com/chazu/polycsg/pkg/polygon"
	"github.com/chazu/polycsg/pkg/tessellate"
	"github.com/chazu/polycsg/pkg/validate"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Config selects the backend and numeric policy of an App.
type Config struct {
	Kernel      string // poly, sdfx or manifold
	Policy      string // naive or best
	Epsilon     float64
	Workers     int
	Timeout     time.Duration
	IncludeMesh bool // attach the triangulated mesh to each report
	Logger      *log.Logger
}

// DefaultConfig returns the polygon kernel with best-ear clipping.
func DefaultConfig() Config {
	return Config{
		Kernel:  "poly",
		Policy:  polygon.PolicyBestEar.String(),
		Epsilon: polygon.DefaultEpsilon,
		Workers: tessellate.DefaultOptions().Workers,
		Timeout: engine.EvalTimeout,
	}
}

// newKernel resolves a backend by name.
func newKernel(name string) (kernel.Kernel, error) {
	switch name {
	case "poly", "":
		return poly.New(), nil
	case "sdfx":
		return sdfx.New(), nil
	case "manifold":
		return manifold.New()
	}
	return nil, errors.Errorf("unknown kernel %q (want poly, sdfx or manifold)", name)
}

// App evaluates scripts and checks every mesh they define.
type App struct {
	engine   *engine.Engine
	tess     tessellate.Options
	check    validate.Options
	withMesh bool
}

// MeshReport is the JSON-serializable summary of one named mesh.
type MeshReport struct {
	Name      string                `json:"name"`
	ID        string                `json:"id"`
	Vertices  int                   `json:"vertices"`
	Faces     int                   `json:"faces"`
	Triangles int                   `json:"triangles"`
	Closed    bool                  `json:"closed"`
	Volume    float64               `json:"volume"`
	Fallbacks []tessellate.Fallback `json:"fallbacks"`
	Errors    []validate.Issue      `json:"errors"`
	Warnings  []validate.Issue      `json:"warnings"`
	Mesh      *kernel.Mesh          `json:"mesh,omitempty"`
}

// EvalResult is the full result of one script.
type EvalResult struct {
	Meshes []MeshReport        `json:"meshes"`
	Errors []engine.EvalError `json:"errors"`
}

// OK reports whether the script evaluated and every mesh validated.
func (r EvalResult) OK() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, m := range r.Meshes {
		if len(m.Errors) > 0 {
			return false
		}
	}
	return true
}

// NewApp creates an App from cfg.
func NewApp(cfg Config) (*App, error) {
	k, err := newKernel(cfg.Kernel)
	if err != nil {
		return nil, err
	}
	policy, err := polygon.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	popts := polygon.DefaultOptions()
	popts.Policy = policy
	popts.Epsilon = cfg.Epsilon
	if err := popts.Validate(); err != nil {
		return nil, err
	}

	tess := tessellate.Options{Polygon: popts, Workers: cfg.Workers, Logger: cfg.Logger}
	check := validate.DefaultOptions()
	check.Polygon = popts

	eng := engine.NewEngineWithOptions(engine.Options{
		Kernel:     k,
		Timeout:    cfg.Timeout,
		Tessellate: tess,
		Logger:     cfg.Logger,
	})
	return &App{engine: eng, tess: tess, check: check, withMesh: cfg.IncludeMesh}, nil
}

// Evaluate runs source and reports on every mesh it binds with defmesh.
// Meshes that fail structural validation are reported but not tessellated.
func (a *App) Evaluate(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Meshes: []MeshReport{},
		Errors: []engine.EvalError{},
	}

	sc, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, engine.EvalError{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		result.Errors = append(result.Errors, evalErrs...)
		return result
	}

	for _, e := range sc.Entries() {
		rep := MeshReport{
			Name:      e.Name,
			ID:        e.ID.String(),
			Vertices:  e.Mesh.VertexCount(),
			Faces:     e.Mesh.FaceCount(),
			Fallbacks: []tessellate.Fallback{},
			Errors:    []validate.Issue{},
			Warnings:  []validate.Issue{},
		}
		errs, warnings := validate.Validate(e.Mesh, a.check)
		rep.Errors = append(rep.Errors, errs...)
		rep.Warnings = append(rep.Warnings, warnings...)
		if hasCode(errs, validate.CodeMalformed) {
			result.Meshes = append(result.Meshes, rep)
			continue
		}

		out, tr, err := tessellate.Tessellate(ctx, e.Mesh, a.tess)
		if err != nil {
			log.Printf("Tessellate error: %v", err)
			result.Errors = append(result.Errors, engine.EvalError{
				Message: "tessellation of " + e.Name + " failed: " + err.Error(),
			})
			return result
		}
		rep.Triangles = tr.Triangles
		rep.Fallbacks = append(rep.Fallbacks, tr.Fallbacks...)
		rep.Closed = validate.IsClosedManifold(out)
		rep.Volume = out.SignedVolume()
		if a.withMesh {
			rep.Mesh = out
		}
		result.Meshes = append(result.Meshes, rep)
	}
	return result
}

func hasCode(issues []validate.Issue, code string) bool {
	return lo.ContainsBy(issues, func(i validate.Issue) bool { return i.Code == code })
}
