package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/polycsg/pkg/kernel/sdfx"
	"github.com/chazu/polycsg/pkg/scene"
	"github.com/chazu/polycsg/pkg/validate"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere 1 :segments 8)`,
			expect: `(sphere 1 "__kw_segments" 8)`,
		},
		{
			name:   "multiple keywords",
			input:  `(sphere 1 :segments 8 :rings 4)`,
			expect: `(sphere 1 "__kw_segments" 8 "__kw_rings" 4)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(face-count :minor-segments ref)`,
			expect: `(face_count "__kw_minor-segments" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(translate b -5 0 0)`,
			expect: `(translate b -5 0 0)`,
		},
		{
			name:   "exponent preserved",
			input:  `:epsilon 1e-9`,
			expect: `"__kw_epsilon" 1e-9`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEvaluate(t *testing.T, eng *Engine, source string) *scene.Scene {
	t.Helper()
	sc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if sc == nil {
		t.Fatal("expected non-nil scene")
	}
	return sc
}

func expectEvalError(t *testing.T, eng *Engine, source, want string) {
	t.Helper()
	_, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected an eval error for %q", source)
	}
	if !strings.Contains(evalErrs[0].Message, want) {
		t.Errorf("message = %q, want containing %q", evalErrs[0].Message, want)
	}
}

// evalIn evaluates source in a fresh sandbox and returns the value of the
// last expression.
func evalIn(t *testing.T, source string) zygo.Sexp {
	t.Helper()
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, scene.New(), DefaultOptions())
	v, err := env.EvalString(preprocessSource(source))
	if err != nil {
		t.Fatalf("EvalString(%q): %v", source, err)
	}
	return v
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func TestDefmeshBox(t *testing.T) {
	sc := mustEvaluate(t, NewEngine(), `(defmesh "block" (box 1 2 3))`)
	if sc.Len() != 1 {
		t.Fatalf("expected 1 mesh, got %d", sc.Len())
	}
	e := sc.Lookup("block")
	if e == nil {
		t.Fatal("expected mesh named 'block'")
	}
	if e.Mesh.Name != "block" {
		t.Errorf("mesh name = %q, want block", e.Mesh.Name)
	}
	if e.Mesh.VertexCount() != 8 || e.Mesh.FaceCount() != 6 {
		t.Errorf("got %d vertices and %d faces, want 8 and 6", e.Mesh.VertexCount(), e.Mesh.FaceCount())
	}
	if !validate.IsClosedManifold(e.Mesh) {
		t.Error("box is not a closed manifold")
	}
	if v := e.Mesh.SignedVolume(); math.Abs(v-6) > 1e-9 {
		t.Errorf("volume = %v, want 6", v)
	}
}

func TestVariableReference(t *testing.T) {
	source := `
(def h 2)
(defmesh "can" (cylinder 1 h :segments 8))
`
	sc := mustEvaluate(t, NewEngine(), source)
	m := sc.MustLookup("can").Mesh
	if m.VertexCount() != 16 || m.FaceCount() != 10 {
		t.Errorf("got %d vertices and %d faces, want 16 and 10", m.VertexCount(), m.FaceCount())
	}
	min, max := m.Bounds()
	if math.Abs(min[2]+1) > 1e-9 || math.Abs(max[2]-1) > 1e-9 {
		t.Errorf("z extent = [%v, %v], want [-1, 1]", min[2], max[2])
	}
}

func TestCurvedPrimitives(t *testing.T) {
	source := `
(defmesh "ball" (sphere 1 :segments 12 :rings 6))
(defmesh "tip" (cone 1 2 :segments 12))
(defmesh "ring" (torus 3 1 :segments 12 :minor-segments 6))
(defmesh "ell" (extrude (list 0 0 2 0 2 1 1 1 1 2 0 2) 3))
(defmesh "bead" (revolve [0 0 1 0 1 1 0 1] :angle 180 :segments 6))
`
	sc := mustEvaluate(t, NewEngine(), source)
	want := []string{"ball", "tip", "ring", "ell", "bead"}
	names := sc.Names()
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], name)
		}
		if err := validate.CheckManifold(sc.MustLookup(name).Mesh); err != nil {
			t.Errorf("%s: CheckManifold() = %v", name, err)
		}
	}
}

func TestTriangulateBuiltin(t *testing.T) {
	source := `
(defmesh "naive" (triangulate (box 1 1 1)))
(defmesh "best" (triangulate (box 1 1 1) :policy :best :epsilon 1e-9))
`
	sc := mustEvaluate(t, NewEngine(), source)
	for _, name := range []string{"naive", "best"} {
		m := sc.MustLookup(name).Mesh
		if !m.IsTriangulated() {
			t.Errorf("%s: not triangulated", name)
		}
		if m.FaceCount() != 12 {
			t.Errorf("%s: face count = %d, want 12", name, m.FaceCount())
		}
		if !validate.IsClosedManifold(m) {
			t.Errorf("%s: not a closed manifold", name)
		}
	}
}

func TestTriangulateBadPolicy(t *testing.T) {
	expectEvalError(t, NewEngine(), `(triangulate (box 1 1 1) :policy :fastest)`, "policy")
}

func TestQueryBuiltins(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(zygo.Sexp) bool
	}{
		{"closed box", `(closed-manifold (box 1 1 1))`, isBool(true)},
		{"open triangle", `(closed-manifold (polymesh (list 0 0 0 1 0 0 0 1 0) (list 3 0 1 2)))`, isBool(false)},
		{"face count", `(face-count (box 1 1 1))`, isInt(6)},
		{"vertex count", `(vertex-count (box 1 1 1))`, isInt(8)},
		{"triangulated face count", `(face-count (triangulate (box 1 1 1)))`, isInt(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := evalIn(t, tt.source)
			if !tt.check(v) {
				t.Errorf("%s = %s", tt.source, v.SexpString(nil))
			}
		})
	}
}

func isBool(want bool) func(zygo.Sexp) bool {
	return func(s zygo.Sexp) bool {
		b, ok := s.(*zygo.SexpBool)
		return ok && b.Val == want
	}
}

func isInt(want int64) func(zygo.Sexp) bool {
	return func(s zygo.Sexp) bool {
		n, ok := s.(*zygo.SexpInt)
		return ok && n.Val == want
	}
}

func TestTransformsOnMeshes(t *testing.T) {
	source := `
(defmesh "a" (box 1 1 1))
(defmesh "moved" (translate (mesh "a") (vec3 5 0 0)))
(defmesh "big" (scale (mesh "a") 2 2 2))
(defmesh "turned" (rotate (mesh "a") 0 0 90))
(defmesh "mirrored" (scale (mesh "a") -1 1 1))
`
	sc := mustEvaluate(t, NewEngine(), source)

	min, _ := sc.MustLookup("moved").Mesh.Bounds()
	if math.Abs(min[0]-5) > 1e-9 {
		t.Errorf("moved min x = %v, want 5", min[0])
	}
	if v := sc.MustLookup("big").Mesh.SignedVolume(); math.Abs(v-8) > 1e-9 {
		t.Errorf("big volume = %v, want 8", v)
	}
	min, _ = sc.MustLookup("turned").Mesh.Bounds()
	if math.Abs(min[0]+1) > 1e-9 {
		t.Errorf("turned min x = %v, want -1", min[0])
	}
	// Mirroring keeps the solid outward-wound.
	if v := sc.MustLookup("mirrored").Mesh.SignedVolume(); math.Abs(v-1) > 1e-9 {
		t.Errorf("mirrored volume = %v, want 1", v)
	}
	// The source mesh is untouched.
	min, max := sc.MustLookup("a").Mesh.Bounds()
	if min != [3]float64{0, 0, 0} || max != [3]float64{1, 1, 1} {
		t.Errorf("a bounds changed: %v %v", min, max)
	}
}

func TestTransformsOnSolids(t *testing.T) {
	source := `
(defmesh "moved" (translate (box 1 1 1) 0 0 10))
(defmesh "big" (scale (box 1 1 1) 3 1 1))
`
	sc := mustEvaluate(t, NewEngine(), source)
	min, _ := sc.MustLookup("moved").Mesh.Bounds()
	if math.Abs(min[2]-10) > 1e-9 {
		t.Errorf("moved min z = %v, want 10", min[2])
	}
	if v := sc.MustLookup("big").Mesh.SignedVolume(); math.Abs(v-3) > 1e-9 {
		t.Errorf("big volume = %v, want 3", v)
	}
}

func TestDisjointUnion(t *testing.T) {
	source := `
(defmesh "pair" (union (box 1 1 1) (translate (box 1 1 1) 3 0 0)))
(defmesh "mixed" (union (box 1 1 1) (polymesh (list 5 0 0 6 0 0 5 1 0 5 0 1)
                                             (list 3 0 2 1 3 0 1 3 3 1 2 3 3 0 3 2))))
`
	sc := mustEvaluate(t, NewEngine(), source)
	m := sc.MustLookup("pair").Mesh
	if m.VertexCount() != 16 || m.FaceCount() != 12 {
		t.Errorf("pair has %d vertices and %d faces, want 16 and 12", m.VertexCount(), m.FaceCount())
	}
	mixed := sc.MustLookup("mixed").Mesh
	if err := validate.CheckManifold(mixed); err != nil {
		t.Errorf("mixed: CheckManifold() = %v", err)
	}
	if mixed.FaceCount() != 10 {
		t.Errorf("mixed face count = %d, want 10", mixed.FaceCount())
	}
}

func TestOverlappingUnionFails(t *testing.T) {
	expectEvalError(t, NewEngine(), `(union (box 2 2 2) (translate (box 2 2 2) 1 1 1))`, "not supported")
}

func TestShaperBuiltinsNeedShaperKernel(t *testing.T) {
	eng := NewEngineWithOptions(Options{Kernel: sdfx.NewWithCells(8)})
	for _, source := range []string{
		`(sphere 1)`,
		`(cone 1 2)`,
		`(torus 3 1)`,
		`(extrude (list 0 0 1 0 0 1) 1)`,
		`(revolve (list 0 0 1 0 1 1))`,
		`(scale (box 1 1 1) 2 2 2)`,
	} {
		t.Run(source, func(t *testing.T) {
			expectEvalError(t, eng, source, "not supported by this kernel")
		})
	}
}

func TestSdfxKernelBoolean(t *testing.T) {
	eng := NewEngineWithOptions(Options{Kernel: sdfx.NewWithCells(16)})
	sc := mustEvaluate(t, eng, `(defmesh "u" (union (box 2 2 2) (translate (box 2 2 2) 1 1 1)))`)
	m := sc.MustLookup("u").Mesh
	if m.IsEmpty() {
		t.Fatal("sdfx union mesh is empty")
	}
	t.Logf("sdfx union: %d vertices, %d faces", m.VertexCount(), m.FaceCount())
}

func TestRebindingKeepsOrder(t *testing.T) {
	source := `
(defmesh "x" (box 1 1 1))
(defmesh "y" (box 1 1 1))
(defmesh "x" (box 2 2 2))
`
	sc := mustEvaluate(t, NewEngine(), source)
	names := sc.Names()
	if len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Errorf("Names() = %v, want [x y]", names)
	}
	if v := sc.MustLookup("x").Mesh.SignedVolume(); math.Abs(v-8) > 1e-9 {
		t.Errorf("x volume = %v, want 8", v)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"missing mesh", `(mesh "nonexistent")`, "no mesh named"},
		{"negative box", `(box -1 1 1)`, "box"},
		{"box arity", `(box 1 1)`, "box"},
		{"vec3 arity", `(vec3 1 2)`, "vec3"},
		{"malformed polymesh", `(polymesh (list 0 0 0 1 0 0) (list 3 0 1 2))`, "polymesh"},
		{"fractional index", `(polymesh (list 0 0 0 1 0 0 0 1 0) (list 3 0 1 1.5))`, "integer"},
		{"union arity", `(union (box 1 1 1))`, "at least 2"},
		{"translate non-shape", `(translate 1 2 3 4)`, "expected solid or mesh"},
		{"defmesh name", `(defmesh 1 (box 1 1 1))`, "defmesh"},
		{"torus radii", `(torus 1 2)`, "torus"},
	}
	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectEvalError(t, eng, tt.source, tt.want)
		})
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	sc := mustEvaluate(t, NewEngine(), "(+ 1 2)")
	if sc.Len() != 0 {
		t.Errorf("expected empty scene, got %d meshes", sc.Len())
	}
}
