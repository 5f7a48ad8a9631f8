package validate

import (
	"fmt"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/google/btree"
	"github.com/pkg/errors"
)

// ErrManifoldViolation is the sentinel wrapped by every *ManifoldError.
var ErrManifoldViolation = errors.New("mesh is not a closed manifold")

// ViolationKind distinguishes the two ways the edge sweep can fail.
type ViolationKind int

const (
	// Unbalanced means some directed edge never met its reverse: the mesh
	// has a hole or inconsistently wound faces.
	Unbalanced ViolationKind = iota
	// DuplicateEdge means the same directed edge was seen twice before it
	// was balanced: more than two faces share it, or two neighbours share
	// a winding.
	DuplicateEdge
)

func (k ViolationKind) String() string {
	switch k {
	case Unbalanced:
		return "unbalanced edge"
	case DuplicateEdge:
		return "duplicate edge"
	default:
		return fmt.Sprintf("ViolationKind(%d)", int(k))
	}
}

// Edge is a directed edge between two vertex indices.
type Edge struct {
	From, To int32
}

func (e Edge) String() string { return fmt.Sprintf("%d->%d", e.From, e.To) }

// ManifoldError reports the first edge that breaks closure.
type ManifoldError struct {
	Kind ViolationKind
	Edge Edge
	// Face is the index of the loop that contributed Edge.
	Face int
	// Open is the number of unbalanced edges left at the end of the sweep.
	// It is zero for DuplicateEdge, which stops the sweep early.
	Open int
}

func (e *ManifoldError) Error() string {
	if e.Kind == Unbalanced {
		return fmt.Sprintf("%s: %d open edges, first %s from face %d", ErrManifoldViolation, e.Open, e.Edge, e.Face)
	}
	return fmt.Sprintf("%s: %s %s in face %d", ErrManifoldViolation, e.Kind, e.Edge, e.Face)
}

func (e *ManifoldError) Unwrap() error { return ErrManifoldViolation }

// edgeItem is an entry of the open edge set. Only the edge takes part in
// ordering; face records where it came from.
type edgeItem struct {
	edge Edge
	face int
}

func edgeLess(a, b edgeItem) bool {
	return a.edge.From < b.edge.From || (a.edge.From == b.edge.From && a.edge.To < b.edge.To)
}

// IsClosedManifold reports whether every directed edge of the mesh is
// matched by exactly one reverse edge. It does not say why a mesh fails;
// use CheckManifold for that.
func IsClosedManifold(m *kernel.Mesh) bool {
	return CheckManifold(m) == nil
}

// CheckManifold sweeps all loop edges through an ordered set of open
// directed edges. An edge whose reverse is open balances it; an edge that
// is itself already open is a DuplicateEdge; otherwise it becomes open.
// The mesh is closed when the set ends up empty. A structurally broken
// face buffer returns an error wrapping kernel.ErrMalformedMesh instead
// of a *ManifoldError.
func CheckManifold(m *kernel.Mesh) error {
	open := btree.NewG[edgeItem](16, edgeLess)

	err := m.ForEachLoop(func(face int, loop []int32) error {
		for i, v0 := range loop {
			v1 := loop[(i+1)%len(loop)]
			fwd := edgeItem{edge: Edge{v0, v1}, face: face}
			if _, ok := open.Delete(edgeItem{edge: Edge{v1, v0}}); ok {
				continue
			}
			if open.Has(fwd) {
				return &ManifoldError{Kind: DuplicateEdge, Edge: fwd.edge, Face: face}
			}
			open.ReplaceOrInsert(fwd)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if first, ok := open.Min(); ok {
		return &ManifoldError{Kind: Unbalanced, Edge: first.edge, Face: first.face, Open: open.Len()}
	}
	return nil
}
