// Package poly implements kernel.Kernel and kernel.Shaper directly on
// packed polygon meshes, using the primitives and transform packages.
// Solids are exact polyhedra. Booleans are only evaluated when the
// operands' bounding boxes are disjoint; everything else reports
// kernel.ErrBooleanUnsupported.
package poly

import (
	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/primitives"
	"github.com/chazu/polycsg/pkg/transform"
	"github.com/pkg/errors"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*PolyKernel)(nil)
	_ kernel.Shaper = (*PolyKernel)(nil)
)

// polySolid wraps a mesh to implement kernel.Solid. The mesh is owned by
// the solid and never modified after construction.
type polySolid struct {
	m *kernel.Mesh
}

// BoundingBox returns the axis-aligned bounding box.
func (s *polySolid) BoundingBox() (min, max [3]float64) {
	return s.m.Bounds()
}

// PolyKernel implements kernel.Kernel on polygon meshes.
type PolyKernel struct{}

// New returns a new PolyKernel.
func New() *PolyKernel {
	return &PolyKernel{}
}

// unwrap extracts the mesh from a kernel.Solid created by this kernel.
func unwrap(s kernel.Solid) (*kernel.Mesh, error) {
	ps, ok := s.(*polySolid)
	if !ok {
		return nil, errors.Errorf("poly: solid of type %T was not created by this kernel", s)
	}
	return ps.m, nil
}

func mustUnwrap(s kernel.Solid) *kernel.Mesh {
	m, err := unwrap(s)
	if err != nil {
		panic(err)
	}
	return m
}

func wrap(m *kernel.Mesh, err error) (kernel.Solid, error) {
	if err != nil {
		return nil, err
	}
	return &polySolid{m: m}, nil
}

// upright turns a Y-axis primitive onto the Z axis.
func upright(m *kernel.Mesh, err error) (*kernel.Mesh, error) {
	if err != nil {
		return nil, err
	}
	return transform.Rotate(m, 90, 0, 0), nil
}

// Box creates a box with its minimum corner at the origin.
func (k *PolyKernel) Box(x, y, z float64) (kernel.Solid, error) {
	return wrap(primitives.Box(x, y, z, false))
}

// Cylinder creates a prism approximating a cylinder, centered on the
// origin along Z.
func (k *PolyKernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	return wrap(upright(primitives.Cylinder(radius, height, true, segments)))
}

// Sphere creates a UV sphere centered on the origin.
func (k *PolyKernel) Sphere(radius float64, segments, rings int) (kernel.Solid, error) {
	return wrap(primitives.Sphere(radius, true, segments, rings))
}

// Cone creates a cone centered on the origin along Z, apex at +Z.
func (k *PolyKernel) Cone(radius, height float64, segments int) (kernel.Solid, error) {
	return wrap(upright(primitives.Cone(radius, height, true, segments)))
}

// Torus creates a torus centered on the origin around Z.
func (k *PolyKernel) Torus(major, minor float64, majorSegments, minorSegments int) (kernel.Solid, error) {
	return wrap(upright(primitives.Torus(major, minor, true, majorSegments, minorSegments)))
}

// Extrude sweeps a closed 2D profile along +Z.
func (k *PolyKernel) Extrude(profile []float64, distance float64) (kernel.Solid, error) {
	return wrap(primitives.Extrusion(primitives.NewProfile(profile...), distance))
}

// Revolve sweeps a 2D (x, r) profile about the X axis.
func (k *PolyKernel) Revolve(profile []float64, angle float64, segments int) (kernel.Solid, error) {
	return wrap(primitives.SurfaceOfRevolution(primitives.NewProfile(profile...), angle, segments))
}

// FromMesh wraps a copy of m after checking its face buffer.
func (k *PolyKernel) FromMesh(m *kernel.Mesh) (kernel.Solid, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &polySolid{m: m.Clone()}, nil
}

// Translate moves a solid by (x, y, z).
func (k *PolyKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return &polySolid{m: transform.Translate(mustUnwrap(s), x, y, z)}
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *PolyKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return &polySolid{m: transform.Rotate(mustUnwrap(s), x, y, z)}
}

// Scale scales a solid about the origin.
func (k *PolyKernel) Scale(s kernel.Solid, x, y, z float64) (kernel.Solid, error) {
	m, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	return wrap(transform.Scale(m, x, y, z))
}

// Union returns both solids as one mesh when they are disjoint.
func (k *PolyKernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	ma, mb, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	if !disjoint(ma, mb) {
		return nil, errors.Wrap(kernel.ErrBooleanUnsupported, "poly: union of overlapping solids")
	}
	return &polySolid{m: merge(ma, mb)}, nil
}

// Difference returns a unchanged when b does not reach it.
func (k *PolyKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	ma, mb, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	if !disjoint(ma, mb) {
		return nil, errors.Wrap(kernel.ErrBooleanUnsupported, "poly: difference of overlapping solids")
	}
	return a, nil
}

// Intersection returns an empty solid when the operands are disjoint.
func (k *PolyKernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	ma, mb, err := operands(a, b)
	if err != nil {
		return nil, err
	}
	if !disjoint(ma, mb) {
		return nil, errors.Wrap(kernel.ErrBooleanUnsupported, "poly: intersection of overlapping solids")
	}
	return &polySolid{m: &kernel.Mesh{}}, nil
}

// ToMesh returns a copy of the solid's mesh.
func (k *PolyKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	m, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

func operands(a, b kernel.Solid) (*kernel.Mesh, *kernel.Mesh, error) {
	ma, err := unwrap(a)
	if err != nil {
		return nil, nil, err
	}
	mb, err := unwrap(b)
	if err != nil {
		return nil, nil, err
	}
	return ma, mb, nil
}

// disjoint reports whether the bounding boxes are separated on some
// axis. Empty meshes are disjoint from everything. Touching boxes are
// not disjoint, since the solids may share a face.
func disjoint(a, b *kernel.Mesh) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return true
	}
	alo, ahi := a.Bounds()
	blo, bhi := b.Bounds()
	for i := 0; i < 3; i++ {
		if ahi[i] < blo[i] || bhi[i] < alo[i] {
			return true
		}
	}
	return false
}

// merge concatenates two meshes, offsetting b's vertex indices.
func merge(a, b *kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{
		Coords: make([]float64, 0, len(a.Coords)+len(b.Coords)),
		Faces:  make([]int32, 0, len(a.Faces)+len(b.Faces)),
		Name:   a.Name,
	}
	out.Coords = append(append(out.Coords, a.Coords...), b.Coords...)
	out.Faces = append(out.Faces, a.Faces...)
	offset := int32(a.VertexCount())
	_ = b.ForEachLoop(func(_ int, loop []int32) error {
		out.Faces = append(out.Faces, int32(len(loop)))
		for _, v := range loop {
			out.Faces = append(out.Faces, v+offset)
		}
		return nil
	})
	return out
}
