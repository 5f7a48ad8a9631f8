package polygon

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestIsEarSkipsCornerIDs(t *testing.T) {
	up := mgl64.Vec3{0, 0, 1}
	// v4 sits on v1 under a different id.
	coords := []float64{0, 0, 0, 2, 0, 0, 2, 2, 0, 0, 2, 0, 2, 0, 0}

	tests := []struct {
		name string
		loop []int32
		want bool
	}{
		{"plain square", []int32{0, 1, 2, 3}, true},
		{"repeated corner id", []int32{0, 1, 2, 3, 1}, true},
		{"coincident vertex with other id", []int32{0, 1, 2, 3, 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRing(coords, tt.loop, up, DefaultEpsilon)
			if got := r.isEar(1); got != tt.want {
				t.Errorf("isEar(1) = %v, want %v", got, tt.want)
			}
			if r.tries != 1 {
				t.Errorf("tries = %d, want 1", r.tries)
			}
		})
	}
}

func TestClipUpdatesRing(t *testing.T) {
	coords := []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	r := newRing(coords, []int32{0, 1, 2, 3}, mgl64.Vec3{0, 0, 1}, DefaultEpsilon)

	p, nx := r.clip(1)
	if p != 0 || nx != 2 {
		t.Fatalf("clip(1) = (%d, %d), want (0, 2)", p, nx)
	}
	if r.next[0] != 2 || r.prev[2] != 0 {
		t.Errorf("links not updated: next[0]=%d prev[2]=%d", r.next[0], r.prev[2])
	}
	if r.live != 3 {
		t.Errorf("live = %d, want 3", r.live)
	}
	want := []int32{3, 0, 1, 2}
	for i := range want {
		if r.tris[i] != want[i] {
			t.Fatalf("tris = %v, want %v", r.tris, want)
		}
	}
	// Vertex 0 now sees (3, 0, 2): still convex, twice the area 0.5.
	if r.convexity[0] != 1 {
		t.Errorf("convexity[0] = %v, want 1", r.convexity[0])
	}
}

func TestEarLess(t *testing.T) {
	tests := []struct {
		a, b ear
		want bool
	}{
		{ear{1, 5}, ear{2, 0}, true},
		{ear{2, 0}, ear{1, 5}, false},
		{ear{1, 0}, ear{1, 1}, true},
		{ear{1, 1}, ear{1, 1}, false},
	}
	for _, tt := range tests {
		if got := earLess(tt.a, tt.b); got != tt.want {
			t.Errorf("earLess(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
