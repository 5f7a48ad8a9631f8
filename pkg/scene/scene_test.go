package scene

import (
	"testing"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/google/uuid"
)

func tri() *kernel.Mesh {
	return &kernel.Mesh{
		Coords: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Faces:  []int32{3, 0, 1, 2},
	}
}

func TestAddAndLookup(t *testing.T) {
	s := New()
	a := s.Add("a", tri())
	b := s.Add("b", tri())

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if got := s.Lookup("a"); got != a {
		t.Errorf("Lookup(a) = %v, want %v", got, a)
	}
	if got := s.Get(b.ID); got != b {
		t.Errorf("Get(b.ID) = %v, want %v", got, b)
	}
	if a.ID == b.ID || a.ID == uuid.Nil {
		t.Errorf("IDs not unique: %v %v", a.ID, b.ID)
	}
	if a.Mesh.Name != "a" {
		t.Errorf("mesh name = %q, want a", a.Mesh.Name)
	}
	if s.Lookup("missing") != nil {
		t.Error("Lookup(missing) should be nil")
	}
	if s.Get(uuid.New()) != nil {
		t.Error("Get(unknown) should be nil")
	}
}

func TestRebindKeepsOrder(t *testing.T) {
	s := New()
	first := s.Add("x", tri())
	s.Add("y", tri())
	again := s.Add("x", tri())

	names := s.Names()
	if len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Errorf("Names() = %v, want [x y]", names)
	}
	if s.Lookup("x") != again {
		t.Error("Lookup(x) did not return the rebound entry")
	}
	if s.Get(first.ID) != nil {
		t.Error("old ID still resolves after rebinding")
	}
}

func TestEntriesIsCopy(t *testing.T) {
	s := New()
	s.Add("a", tri())
	entries := s.Entries()
	entries[0] = nil
	if s.Entries()[0] == nil {
		t.Error("Entries() exposes internal slice")
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup did not panic")
		}
	}()
	New().MustLookup("nope")
}
