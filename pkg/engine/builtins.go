package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/polygon"
	"github.com/chazu/polycsg/pkg/scene"
	"github.com/chazu/polycsg/pkg/tessellate"
	"github.com/chazu/polycsg/pkg/transform"
	"github.com/chazu/polycsg/pkg/validate"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Default tessellation of curved primitives when the script gives none.
const (
	defaultSegments = 32
	defaultRings    = 16
)

// errNeedsShaper is wrapped by builtins that the configured kernel cannot
// build.
var errNeedsShaper = errors.New("not supported by this kernel")

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an mgl64.Vec3.
type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid. Solids come from primitives and
// booleans and stay inside the kernel until a mesh is needed.
type sexpSolid struct {
	solid kernel.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	min, max := s.solid.BoundingBox()
	return fmt.Sprintf("(solid %v %v)", min, max)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpMesh wraps a packed polygon mesh, as produced by polymesh,
// triangulate or mesh. Meshes are never modified in place.
type sexpMesh struct {
	mesh *kernel.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %d vertices %d faces)", m.mesh.VertexCount(), m.mesh.FaceCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// intKW returns the integer keyword name, or def when it is absent.
func (pa kwArgs) intKW(name string, def int) (int, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// floatKW returns the numeric keyword name, or def when it is absent.
func (pa kwArgs) floatKW(name string, def float64) (float64, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt or an integral SexpFloat.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_best) and plain strings ("best").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toFloats converts a list of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// toIndices converts a list of integers.
func toIndices(s zygo.Sexp) ([]int32, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(items))
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = int32(n)
	}
	return out, nil
}

// toVec3 accepts either a single vec3 or three numbers.
func toVec3(args []zygo.Sexp) (mgl64.Vec3, error) {
	switch len(args) {
	case 1:
		if v, ok := args[0].(*sexpVec3); ok {
			return v.vec, nil
		}
		return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", args[0], args[0].SexpString(nil))
	case 3:
		var v mgl64.Vec3
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return mgl64.Vec3{}, fmt.Errorf("component %d: %w", i, err)
			}
			v[i] = f
		}
		return v, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

// toSolid returns the kernel solid behind s. Meshes are lifted into the
// kernel when it implements kernel.Shaper.
func toSolid(k kernel.Kernel, s zygo.Sexp) (kernel.Solid, error) {
	switch v := s.(type) {
	case *sexpSolid:
		return v.solid, nil
	case *sexpMesh:
		sh, ok := k.(kernel.Shaper)
		if !ok {
			return nil, fmt.Errorf("mesh operand: %w", errNeedsShaper)
		}
		return sh.FromMesh(v.mesh)
	}
	return nil, fmt.Errorf("expected solid or mesh, got %T (%s)", s, s.SexpString(nil))
}

// toMesh returns the mesh behind s, tessellating solids through the kernel.
func toMesh(k kernel.Kernel, s zygo.Sexp) (*kernel.Mesh, error) {
	switch v := s.(type) {
	case *sexpMesh:
		return v.mesh, nil
	case *sexpSolid:
		return k.ToMesh(v.solid)
	}
	return nil, fmt.Errorf("expected solid or mesh, got %T (%s)", s, s.SexpString(nil))
}

func shaper(k kernel.Kernel) (kernel.Shaper, error) {
	sh, ok := k.(kernel.Shaper)
	if !ok {
		return nil, fmt.Errorf("%T: %w", k, errNeedsShaper)
	}
	return sh, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all polyscript builtins into a zygomys
// environment. Solids are built with opts.Kernel, and defmesh binds
// results into sc.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene, opts Options) {
	k := opts.Kernel

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := toVec3(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (box 10 20 30) - minimum corner at the origin
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		size, err := toVec3(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		s, err := k.Box(size[0], size[1], size[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder radius height :segments 32) - centered, axis along Z
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("cylinder requires a radius and a height")
		}
		r, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		h, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		segs, err := pa.intKW("segments", defaultSegments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		s, err := k.Cylinder(h, r, segs)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (cone radius height :segments 32) - centered, apex toward +Z
	// -----------------------------------------------------------------------
	env.AddFunction("cone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("cone requires a radius and a height")
		}
		sh, err := shaper(k)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cone: %w", err)
		}
		r, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cone: radius: %w", err)
		}
		h, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cone: height: %w", err)
		}
		segs, err := pa.intKW("segments", defaultSegments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cone: %w", err)
		}
		s, err := sh.Cone(r, h, segs)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cone: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere radius :segments 32 :rings 16)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("sphere requires a radius")
		}
		sh, err := shaper(k)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		r, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		segs, err := pa.intKW("segments", defaultSegments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		rings, err := pa.intKW("rings", defaultRings)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		s, err := sh.Sphere(r, segs, rings)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (torus major minor :segments 32 :minor-segments 16)
	// -----------------------------------------------------------------------
	env.AddFunction("torus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("torus requires a major and a minor radius")
		}
		sh, err := shaper(k)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		major, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: major: %w", err)
		}
		minor, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: minor: %w", err)
		}
		segs, err := pa.intKW("segments", defaultSegments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		minorSegs, err := pa.intKW("minor-segments", defaultRings)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		s, err := sh.Torus(major, minor, segs, minorSegs)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (extrude (list x0 y0 x1 y1 ...) distance)
	// -----------------------------------------------------------------------
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("extrude requires a profile and a distance")
		}
		sh, err := shaper(k)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		profile, err := toFloats(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: profile: %w", err)
		}
		d, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: distance: %w", err)
		}
		s, err := sh.Extrude(profile, d)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (revolve (list x0 r0 x1 r1 ...) :angle 360 :segments 32)
	// -----------------------------------------------------------------------
	env.AddFunction("revolve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("revolve requires a profile")
		}
		sh, err := shaper(k)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		profile, err := toFloats(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: profile: %w", err)
		}
		angle, err := pa.floatKW("angle", 360)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		segs, err := pa.intKW("segments", defaultSegments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		s, err := sh.Revolve(profile, angle, segs)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (polymesh (list x0 y0 z0 ...) (list 3 0 1 2 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("polymesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("polymesh requires a coordinate list and a face list")
		}
		coords, err := toFloats(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polymesh: coords: %w", err)
		}
		faces, err := toIndices(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polymesh: faces: %w", err)
		}
		m := &kernel.Mesh{Coords: coords, Faces: faces}
		if err := m.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("polymesh: %w", err)
		}
		return &sexpMesh{mesh: m}, nil
	})

	// -----------------------------------------------------------------------
	// (translate shape 1 2 3) or (translate shape (vec3 1 2 3))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a shape and an offset")
		}
		v, err := toVec3(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: offset: %w", err)
		}
		switch s := args[0].(type) {
		case *sexpSolid:
			return &sexpSolid{solid: k.Translate(s.solid, v[0], v[1], v[2])}, nil
		case *sexpMesh:
			return &sexpMesh{mesh: transform.Translate(s.mesh, v[0], v[1], v[2])}, nil
		}
		return zygo.SexpNull, fmt.Errorf("translate: expected solid or mesh, got %T", args[0])
	})

	// -----------------------------------------------------------------------
	// (rotate shape 0 0 90) - degrees about X, then Y, then Z
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("rotate requires a shape and angles")
		}
		v, err := toVec3(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: angles: %w", err)
		}
		switch s := args[0].(type) {
		case *sexpSolid:
			return &sexpSolid{solid: k.Rotate(s.solid, v[0], v[1], v[2])}, nil
		case *sexpMesh:
			return &sexpMesh{mesh: transform.Rotate(s.mesh, v[0], v[1], v[2])}, nil
		}
		return zygo.SexpNull, fmt.Errorf("rotate: expected solid or mesh, got %T", args[0])
	})

	// -----------------------------------------------------------------------
	// (scale shape 2 2 2) - about the origin; negative factors mirror
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("scale requires a shape and factors")
		}
		v, err := toVec3(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: factors: %w", err)
		}
		switch s := args[0].(type) {
		case *sexpSolid:
			sh, err := shaper(k)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scale: %w", err)
			}
			out, err := sh.Scale(s.solid, v[0], v[1], v[2])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scale: %w", err)
			}
			return &sexpSolid{solid: out}, nil
		case *sexpMesh:
			out, err := transform.Scale(s.mesh, v[0], v[1], v[2])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scale: %w", err)
			}
			return &sexpMesh{mesh: out}, nil
		}
		return zygo.SexpNull, fmt.Errorf("scale: expected solid or mesh, got %T", args[0])
	})

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...)
	// -----------------------------------------------------------------------
	booleans := map[string]func(a, b kernel.Solid) (kernel.Solid, error){
		"union":        k.Union,
		"difference":   k.Difference,
		"intersection": k.Intersection,
	}
	for opName, op := range booleans {
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 operands, got %d", opName, len(args))
			}
			acc, err := toSolid(k, args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand 0: %w", opName, err)
			}
			for i := 1; i < len(args); i++ {
				next, err := toSolid(k, args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", opName, i, err)
				}
				if acc, err = op(acc, next); err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
				}
			}
			return &sexpSolid{solid: acc}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (triangulate shape :policy :best :epsilon 1e-9)
	// -----------------------------------------------------------------------
	env.AddFunction("triangulate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("triangulate requires a shape")
		}
		m, err := toMesh(k, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("triangulate: %w", err)
		}
		topts := opts.Tessellate
		if v, ok := pa.kw["policy"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("triangulate: policy: %w", err)
			}
			if topts.Polygon.Policy, err = polygon.ParsePolicy(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("triangulate: %w", err)
			}
		}
		if topts.Polygon.Epsilon, err = pa.floatKW("epsilon", topts.Polygon.Epsilon); err != nil {
			return zygo.SexpNull, fmt.Errorf("triangulate: %w", err)
		}
		out, _, err := tessellate.Tessellate(context.Background(), m, topts)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("triangulate: %w", err)
		}
		return &sexpMesh{mesh: out}, nil
	})

	// -----------------------------------------------------------------------
	// (closed-manifold shape)
	// -----------------------------------------------------------------------
	env.AddFunction("closed_manifold", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("closed-manifold requires a shape")
		}
		m, err := toMesh(k, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("closed-manifold: %w", err)
		}
		return &zygo.SexpBool{Val: validate.IsClosedManifold(m)}, nil
	})

	// -----------------------------------------------------------------------
	// (face-count shape), (vertex-count shape)
	// -----------------------------------------------------------------------
	counters := map[string]func(m *kernel.Mesh) int{
		"face_count":   (*kernel.Mesh).FaceCount,
		"vertex_count": (*kernel.Mesh).VertexCount,
	}
	for fnName, count := range counters {
		label := strings.ReplaceAll(fnName, "_", "-")
		env.AddFunction(fnName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a shape", label)
			}
			m, err := toMesh(k, args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
			}
			return &zygo.SexpInt{Val: int64(count(m))}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (defmesh "name" shape)
	// -----------------------------------------------------------------------
	env.AddFunction("defmesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defmesh requires a name and a body expression")
		}
		meshName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defmesh: name: %w", err)
		}
		m, err := toMesh(k, args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defmesh: %w", err)
		}
		e := sc.Add(meshName, m.Clone())
		return &sexpMesh{mesh: e.Mesh}, nil
	})

	// -----------------------------------------------------------------------
	// (mesh "name")
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("mesh requires a name argument")
		}
		meshName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: name: %w", err)
		}
		e := sc.Lookup(meshName)
		if e == nil {
			return zygo.SexpNull, fmt.Errorf("mesh: no mesh named %q", meshName)
		}
		return &sexpMesh{mesh: e.Mesh}, nil
	})
}
