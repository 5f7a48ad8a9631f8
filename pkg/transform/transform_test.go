package transform_test

import (
	"math"
	"testing"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/primitives"
	"github.com/chazu/polycsg/pkg/transform"
	"github.com/chazu/polycsg/pkg/validate"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

func box(t *testing.T) *kernel.Mesh {
	t.Helper()
	m, err := primitives.Box(1, 2, 3, false)
	if err != nil {
		t.Fatalf("Box() error: %v", err)
	}
	return m
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTranslate(t *testing.T) {
	m := box(t)
	out := transform.Translate(m, 10, -1, 0.5)
	lo, hi := out.Bounds()
	if !near(lo[0], 10) || !near(lo[1], -1) || !near(lo[2], 0.5) {
		t.Errorf("min = %v", lo)
	}
	if !near(hi[0], 11) || !near(hi[1], 1) || !near(hi[2], 3.5) {
		t.Errorf("max = %v", hi)
	}
	if m.Coords[0] != 0 {
		t.Error("input mesh modified")
	}
}

func TestRotateOrder(t *testing.T) {
	// (1,0,0) about X is unchanged, then 90° about Y gives (0,0,-1),
	// then 90° about Z leaves it there.
	m := &kernel.Mesh{Coords: []float64{1, 0, 0}}
	out := transform.Rotate(m, 90, 90, 90)
	want := []float64{0, 0, -1}
	for i := range want {
		if !near(out.Coords[i], want[i]) {
			t.Fatalf("Coords = %v, want %v", out.Coords, want)
		}
	}

	// (0,1,0): X takes it to (0,0,1), Y to (1,0,0), Z to (0,1,0).
	m = &kernel.Mesh{Coords: []float64{0, 1, 0}}
	out = transform.Rotate(m, 90, 90, 90)
	want = []float64{0, 1, 0}
	for i := range want {
		if !near(out.Coords[i], want[i]) {
			t.Fatalf("Coords = %v, want %v", out.Coords, want)
		}
	}
}

func TestRotatePreservesVolume(t *testing.T) {
	m := box(t)
	out := transform.Rotate(m, 30, 45, 60)
	if v := out.SignedVolume(); !near(v, 6) {
		t.Errorf("volume = %v, want 6", v)
	}
	if !validate.IsClosedManifold(out) {
		t.Error("rotated box not closed")
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name       string
		x, y, z    float64
		wantVolume float64
	}{
		{"uniform", 2, 2, 2, 48},
		{"mirror x", -1, 1, 1, 6},
		{"mirror two axes", -1, -1, 1, 6},
		{"mirror all", -1, -1, -1, 6},
		{"stretch", 1, 1, 0.5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := box(t)
			out, err := transform.Scale(m, tt.x, tt.y, tt.z)
			if err != nil {
				t.Fatalf("Scale() error: %v", err)
			}
			if v := out.SignedVolume(); !near(v, tt.wantVolume) {
				t.Errorf("volume = %v, want %v", v, tt.wantVolume)
			}
			if err := validate.CheckManifold(out); err != nil {
				t.Errorf("CheckManifold() = %v", err)
			}
		})
	}
}

func TestScaleZeroRejected(t *testing.T) {
	_, err := transform.Scale(box(t), 1, 0, 1)
	if !errors.Is(err, transform.ErrSingular) {
		t.Errorf("error = %v, want ErrSingular", err)
	}
}

func TestApplyNotAffine(t *testing.T) {
	p := mgl64.Ident4()
	p.Set(3, 2, 1)
	_, err := transform.Apply(box(t), p)
	if !errors.Is(err, transform.ErrNotAffine) {
		t.Errorf("error = %v, want ErrNotAffine", err)
	}
}

func TestMultMatrix(t *testing.T) {
	m := &kernel.Mesh{Coords: []float64{1, 2, 3}}
	out, err := transform.MultMatrix(m, [3][4]float64{
		{1, 0, 0, 5},
		{0, 2, 0, 0},
		{0, 0, 1, -3},
	})
	if err != nil {
		t.Fatalf("MultMatrix() error: %v", err)
	}
	want := []float64{6, 4, 0}
	for i := range want {
		if !near(out.Coords[i], want[i]) {
			t.Fatalf("Coords = %v, want %v", out.Coords, want)
		}
	}
}

func TestMirrorKeepsFirstVertex(t *testing.T) {
	m := &kernel.Mesh{
		Coords: []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Faces:  []int32{4, 0, 1, 2, 3, 3, 0, 1, 2},
	}
	out, err := transform.Scale(m, -1, 1, 1)
	if err != nil {
		t.Fatalf("Scale() error: %v", err)
	}
	want := []int32{4, 0, 3, 2, 1, 3, 0, 2, 1}
	for i := range want {
		if out.Faces[i] != want[i] {
			t.Fatalf("Faces = %v, want %v", out.Faces, want)
		}
	}
	if m.Faces[2] != 1 {
		t.Error("input faces modified")
	}
}
