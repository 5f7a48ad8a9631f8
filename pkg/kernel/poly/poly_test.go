package poly_test

import (
	"math"
	"testing"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/kernel/poly"
	"github.com/chazu/polycsg/pkg/validate"
	"github.com/pkg/errors"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func toMesh(t *testing.T, k *poly.PolyKernel, s kernel.Solid, err error) *kernel.Mesh {
	t.Helper()
	if err != nil {
		t.Fatalf("constructor error: %v", err)
	}
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error: %v", err)
	}
	return m
}

func TestBoxMinCorner(t *testing.T) {
	k := poly.New()
	s, err := k.Box(10, 20, 30)
	if err != nil {
		t.Fatalf("Box() error: %v", err)
	}
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}

func TestCylinderAlongZ(t *testing.T) {
	k := poly.New()
	s, err := k.Cylinder(10, 2, 32)
	m := toMesh(t, k, s, err)
	min, max := m.Bounds()
	if !near(min[2], -5) || !near(max[2], 5) {
		t.Errorf("z bounds = [%v, %v], want [-5, 5]", min[2], max[2])
	}
	if !near(max[0], 2) || !near(max[1], 2) {
		t.Errorf("xy max = %v, want radius 2", max)
	}
	if !validate.IsClosedManifold(m) {
		t.Error("cylinder is not closed")
	}
	if m.SignedVolume() <= 0 {
		t.Error("cylinder is inside out")
	}
}

func TestShaperPrimitivesClosed(t *testing.T) {
	k := poly.New()
	tests := []struct {
		name  string
		build func() (kernel.Solid, error)
	}{
		{"sphere", func() (kernel.Solid, error) { return k.Sphere(1, 12, 6) }},
		{"cone", func() (kernel.Solid, error) { return k.Cone(1, 2, 12) }},
		{"torus", func() (kernel.Solid, error) { return k.Torus(3, 1, 12, 6) }},
		{"extrude", func() (kernel.Solid, error) { return k.Extrude([]float64{0, 0, 2, 0, 2, 1, 1, 1, 1, 2, 0, 2}, 3) }},
		{"revolve", func() (kernel.Solid, error) { return k.Revolve([]float64{0, 0, 1, 0, 1, 1, 0, 1}, 270, 9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.build()
			m := toMesh(t, k, s, err)
			if err := validate.CheckManifold(m); err != nil {
				t.Errorf("CheckManifold() = %v", err)
			}
			if m.SignedVolume() <= 0 {
				t.Errorf("volume = %v, want positive", m.SignedVolume())
			}
		})
	}
}

func TestConeApexUp(t *testing.T) {
	k := poly.New()
	s, err := k.Cone(1, 4, 8)
	m := toMesh(t, k, s, err)
	// The apex is the last vertex.
	apex := m.Vertex(int32(m.VertexCount() - 1))
	if !near(apex[2], 2) {
		t.Errorf("apex = %v, want z=2", apex)
	}
}

func TestTransforms(t *testing.T) {
	k := poly.New()
	b, _ := k.Box(1, 1, 1)

	moved := k.Translate(b, 5, 0, 0)
	min, _ := moved.BoundingBox()
	if !near(min[0], 5) {
		t.Errorf("translated min = %v", min)
	}

	turned := k.Rotate(b, 0, 0, 90)
	min, max := turned.BoundingBox()
	if !near(min[0], -1) || !near(max[1], 1) {
		t.Errorf("rotated bounds = %v %v", min, max)
	}

	scaled, err := k.Scale(b, 2, 3, 4)
	m := toMesh(t, k, scaled, err)
	if !near(m.SignedVolume(), 24) {
		t.Errorf("scaled volume = %v, want 24", m.SignedVolume())
	}

	if _, err := k.Scale(b, 0, 1, 1); err == nil {
		t.Error("Scale by zero succeeded")
	}

	// The original solid is unchanged.
	min, max = b.BoundingBox()
	if min != [3]float64{0, 0, 0} || max != [3]float64{1, 1, 1} {
		t.Errorf("original bounds changed: %v %v", min, max)
	}
}

func TestDisjointBooleans(t *testing.T) {
	k := poly.New()
	a, _ := k.Box(1, 1, 1)
	b := k.Translate(a, 3, 0, 0)

	u, err := k.Union(a, b)
	m := toMesh(t, k, u, err)
	if m.VertexCount() != 16 || m.FaceCount() != 12 {
		t.Errorf("union has %d vertices and %d faces, want 16 and 12", m.VertexCount(), m.FaceCount())
	}
	if !validate.IsClosedManifold(m) {
		t.Error("union is not closed")
	}
	if !near(m.SignedVolume(), 2) {
		t.Errorf("union volume = %v, want 2", m.SignedVolume())
	}

	d, err := k.Difference(a, b)
	m = toMesh(t, k, d, err)
	if !near(m.SignedVolume(), 1) {
		t.Errorf("difference volume = %v, want 1", m.SignedVolume())
	}

	i, err := k.Intersection(a, b)
	m = toMesh(t, k, i, err)
	if !m.IsEmpty() {
		t.Errorf("intersection has %d vertices, want none", m.VertexCount())
	}
}

func TestOverlappingBooleansUnsupported(t *testing.T) {
	k := poly.New()
	a, _ := k.Box(2, 2, 2)
	b := k.Translate(a, 1, 1, 1)
	touching := k.Translate(a, 2, 0, 0)

	tests := []struct {
		name string
		op   func() (kernel.Solid, error)
	}{
		{"union", func() (kernel.Solid, error) { return k.Union(a, b) }},
		{"difference", func() (kernel.Solid, error) { return k.Difference(a, b) }},
		{"intersection", func() (kernel.Solid, error) { return k.Intersection(a, b) }},
		{"touching union", func() (kernel.Solid, error) { return k.Union(a, touching) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.op(); !errors.Is(err, kernel.ErrBooleanUnsupported) {
				t.Errorf("error = %v, want ErrBooleanUnsupported", err)
			}
		})
	}
}

func TestFromMesh(t *testing.T) {
	k := poly.New()
	src := &kernel.Mesh{
		Coords: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Faces:  []int32{3, 0, 1, 2},
	}
	s, err := k.FromMesh(src)
	m := toMesh(t, k, s, err)
	src.Coords[0] = 99
	if m.Coords[0] != 0 {
		t.Error("FromMesh did not copy its input")
	}

	if _, err := k.FromMesh(&kernel.Mesh{Coords: src.Coords, Faces: []int32{3, 0, 1}}); !errors.Is(err, kernel.ErrMalformedMesh) {
		t.Errorf("error = %v, want ErrMalformedMesh", err)
	}
}

type foreignSolid struct{}

func (foreignSolid) BoundingBox() (min, max [3]float64) { return }

func TestForeignSolid(t *testing.T) {
	k := poly.New()
	if _, err := k.ToMesh(foreignSolid{}); err == nil {
		t.Error("ToMesh accepted a foreign solid")
	}
}
