// Package kernel defines the packed polygon mesh shared by every part of
// the system, and the backend interface that produces those meshes.
// Backends (poly, sdfx, manifold) provide primitives, transforms and, where
// the backend supports them, boolean operations. The polygon kernel proper
// (normals, triangulation, manifold checks) only ever sees *Mesh.
package kernel

import "github.com/pkg/errors"

// ErrBooleanUnsupported is returned by backends that cannot evaluate
// boolean operations.
var ErrBooleanUnsupported = errors.New("boolean operations not supported by this kernel")

// Solid is an opaque handle to a backend solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the backend interface. Box has its minimum corner at the
// origin; Cylinder is centered on the origin with its axis along Z.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64, segments int) (Solid, error)

	// Boolean operations
	Union(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)
	Intersection(a, b Solid) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Shaper is implemented by backends that build the wider primitive set
// directly as polygon meshes. Curved solids are centered on the origin
// with their axis along Z, like Kernel.Cylinder.
type Shaper interface {
	Sphere(radius float64, segments, rings int) (Solid, error)
	Cone(radius, height float64, segments int) (Solid, error)
	Torus(major, minor float64, majorSegments, minorSegments int) (Solid, error)
	// Extrude sweeps a closed 2D profile [x0,y0, x1,y1, ...] along +Z.
	Extrude(profile []float64, distance float64) (Solid, error)
	// Revolve sweeps a 2D profile about the X axis by angle degrees.
	Revolve(profile []float64, angle float64, segments int) (Solid, error)
	Scale(s Solid, x, y, z float64) (Solid, error)
	FromMesh(m *Mesh) (Solid, error)
}
