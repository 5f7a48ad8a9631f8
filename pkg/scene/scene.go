// Package scene holds the named meshes produced by one script evaluation.
package scene

import (
	"fmt"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Entry is one named mesh.
type Entry struct {
	ID   uuid.UUID    `json:"id"`
	Name string       `json:"name"`
	Mesh *kernel.Mesh `json:"mesh"`
}

// Scene is an ordered set of named meshes. It is built by a single
// evaluation and treated as immutable afterwards; each evaluation
// produces a new scene.
type Scene struct {
	entries []*Entry
	byName  map[string]int
	byID    map[uuid.UUID]int
	Version uint64 `json:"version"`
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{
		byName: make(map[string]int),
		byID:   make(map[uuid.UUID]int),
	}
}

// Add binds name to m and returns the new entry. Rebinding a name replaces
// the mesh in place, keeping its position, and issues a fresh ID.
// The mesh's Name is set to name.
func (s *Scene) Add(name string, m *kernel.Mesh) *Entry {
	m.Name = name
	e := &Entry{ID: uuid.New(), Name: name, Mesh: m}
	if i, ok := s.byName[name]; ok {
		delete(s.byID, s.entries[i].ID)
		s.entries[i] = e
		s.byID[e.ID] = i
		return e
	}
	s.byName[name] = len(s.entries)
	s.byID[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	return e
}

// Lookup returns the entry bound to name, or nil.
func (s *Scene) Lookup(name string) *Entry {
	i, ok := s.byName[name]
	if !ok {
		return nil
	}
	return s.entries[i]
}

// MustLookup returns the entry bound to name, or panics.
func (s *Scene) MustLookup(name string) *Entry {
	e := s.Lookup(name)
	if e == nil {
		panic(fmt.Sprintf("scene: no mesh named %q", name))
	}
	return e
}

// Get returns the entry with the given ID, or nil.
func (s *Scene) Get(id uuid.UUID) *Entry {
	i, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.entries[i]
}

// Entries returns the entries in definition order.
func (s *Scene) Entries() []*Entry {
	return append([]*Entry(nil), s.entries...)
}

// Names returns the bound names in definition order.
func (s *Scene) Names() []string {
	return lo.Map(s.entries, func(e *Entry, _ int) string { return e.Name })
}

// Len returns the number of entries.
func (s *Scene) Len() int {
	return len(s.entries)
}
