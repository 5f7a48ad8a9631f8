// Package primitives generates closed polygonal meshes: boxes, spheres,
// cylinders, cones, tori, extrusions of 2D profiles and surfaces of
// revolution. Every generator emits outward-wound loops that pass
// validate.IsClosedManifold.
//
// Non-centered solids sit in the positive octant with their bounding box
// touching the origin. Cylinders and cones run along the Y axis.
package primitives

import (
	"math"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ErrInvalidParameter is wrapped by every argument error in this package.
var ErrInvalidParameter = errors.New("invalid primitive parameter")

// MinSegments is the smallest accepted segment count for curved solids.
const MinSegments = 3

// axisTolerance is the distance from the revolution axis below which a
// profile vertex is treated as lying on it.
const axisTolerance = 1e-6

// builder accumulates a packed mesh.
type builder struct {
	coords []float64
	faces  []int32
}

func (b *builder) vertex(p mgl64.Vec3) int32 {
	id := int32(len(b.coords) / 3)
	b.coords = append(b.coords, p[0], p[1], p[2])
	return id
}

func (b *builder) face(loop ...int32) {
	b.faces = kernel.AppendLoop(b.faces, loop...)
}

func (b *builder) mesh(name string) *kernel.Mesh {
	return &kernel.Mesh{Coords: b.coords, Faces: b.faces, Name: name}
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrInvalidParameter, "%s must be positive and finite, got %v", name, v)
	}
	return nil
}

func segments(name string, n int) error {
	if n < MinSegments {
		return errors.Wrapf(ErrInvalidParameter, "%s must be at least %d, got %d", name, MinSegments, n)
	}
	return nil
}

// Box returns an axis-aligned box with the given edge lengths.
func Box(x, y, z float64, centered bool) (*kernel.Mesh, error) {
	for _, p := range []struct {
		name string
		v    float64
	}{{"size x", x}, {"size y", y}, {"size z", z}} {
		if err := positive(p.name, p.v); err != nil {
			return nil, err
		}
	}

	var off mgl64.Vec3
	if centered {
		off = mgl64.Vec3{-x / 2, -y / 2, -z / 2}
	}
	var b builder
	for _, c := range [8][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	} {
		b.vertex(mgl64.Vec3{c[0] * x, c[1] * y, c[2] * z}.Add(off))
	}
	b.face(0, 1, 5, 4) // -y
	b.face(2, 3, 7, 6) // +y
	b.face(3, 2, 1, 0) // -z
	b.face(4, 5, 6, 7) // +z
	b.face(1, 2, 6, 5) // +x
	b.face(3, 0, 4, 7) // -x
	return b.mesh("box"), nil
}

// Sphere returns a UV sphere with hsegments around the Z axis and
// vsegments from pole to pole, counting both poles.
func Sphere(radius float64, centered bool, hsegments, vsegments int) (*kernel.Mesh, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := segments("horizontal segments", hsegments); err != nil {
		return nil, err
	}
	if err := segments("vertical segments", vsegments); err != nil {
		return nil, err
	}

	var off mgl64.Vec3
	if !centered {
		off = mgl64.Vec3{radius, radius, radius}
	}
	h := int32(hsegments)
	rings := int32(vsegments - 2)

	var b builder
	for j := 1; j < vsegments-1; j++ {
		phi := math.Pi * float64(j) / float64(vsegments-1)
		for i := 0; i < hsegments; i++ {
			theta := -2 * math.Pi * float64(i) / float64(hsegments)
			p := mgl64.Vec3{
				radius * math.Sin(phi) * math.Cos(theta),
				radius * math.Sin(phi) * math.Sin(theta),
				radius * math.Cos(phi),
			}
			b.vertex(p.Add(off))
		}
	}
	north := b.vertex(mgl64.Vec3{0, 0, radius}.Add(off))
	south := b.vertex(mgl64.Vec3{0, 0, -radius}.Add(off))

	for j := int32(0); j < rings-1; j++ {
		for i := int32(0); i < h; i++ {
			b.face(i+j*h, (i+1)%h+j*h, (i+1)%h+(j+1)*h, i+(j+1)*h)
		}
	}
	for i := int32(0); i < h; i++ {
		b.face(north, (i+1)%h, i)
	}
	last := (rings - 1) * h
	for i := int32(0); i < h; i++ {
		b.face(south, i+last, (i+1)%h+last)
	}
	return b.mesh("sphere"), nil
}

// Cylinder returns a prism approximating a cylinder along the Y axis.
func Cylinder(radius, height float64, centered bool, segs int) (*kernel.Mesh, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := positive("height", height); err != nil {
		return nil, err
	}
	if err := segments("segments", segs); err != nil {
		return nil, err
	}

	base := ring(radius, height, centered, segs)
	n := int32(segs)
	var b builder
	for _, p := range base {
		b.vertex(p)
	}
	for _, p := range base {
		b.vertex(p.Add(mgl64.Vec3{0, height, 0}))
	}

	bottom := make([]int32, n)
	top := make([]int32, n)
	for i := int32(0); i < n; i++ {
		bottom[i] = n - i - 1
		top[i] = i + n
	}
	b.face(bottom...)
	b.face(top...)
	for i := int32(0); i < n; i++ {
		b.face(i, (i+1)%n, (i+1)%n+n, i+n)
	}
	return b.mesh("cylinder"), nil
}

// Cone returns a pyramid approximating a cone along the Y axis, apex up.
func Cone(radius, height float64, centered bool, segs int) (*kernel.Mesh, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := positive("height", height); err != nil {
		return nil, err
	}
	if err := segments("segments", segs); err != nil {
		return nil, err
	}

	n := int32(segs)
	var b builder
	for _, p := range ring(radius, height, centered, segs) {
		b.vertex(p)
	}
	apex := mgl64.Vec3{0, height / 2, 0}
	if !centered {
		apex = mgl64.Vec3{radius, height, radius}
	}
	tip := b.vertex(apex)

	for i := int32(0); i < n; i++ {
		b.face(i, (i+1)%n, tip)
	}
	base := make([]int32, n)
	for i := int32(0); i < n; i++ {
		base[i] = n - i - 1
	}
	b.face(base...)
	return b.mesh("cone"), nil
}

// ring returns the base circle of a cylinder or cone, wound clockwise
// when seen from +Y.
func ring(radius, height float64, centered bool, segs int) []mgl64.Vec3 {
	off := mgl64.Vec3{0, -height / 2, 0}
	if !centered {
		off = mgl64.Vec3{radius, 0, radius}
	}
	pts := make([]mgl64.Vec3, segs)
	for i := range pts {
		theta := -2 * math.Pi * float64(i) / float64(segs)
		pts[i] = mgl64.Vec3{radius * math.Cos(theta), 0, radius * math.Sin(theta)}.Add(off)
	}
	return pts
}

// Torus returns a torus around the Y axis with quads only.
func Torus(major, minor float64, centered bool, majorSegs, minorSegs int) (*kernel.Mesh, error) {
	if err := positive("major radius", major); err != nil {
		return nil, err
	}
	if err := positive("minor radius", minor); err != nil {
		return nil, err
	}
	if minor >= major {
		return nil, errors.Wrapf(ErrInvalidParameter, "minor radius %v must be below major radius %v", minor, major)
	}
	if err := segments("major segments", majorSegs); err != nil {
		return nil, err
	}
	if err := segments("minor segments", minorSegs); err != nil {
		return nil, err
	}

	var off mgl64.Vec3
	if !centered {
		off = mgl64.Vec3{major + minor, minor, major + minor}
	}
	var b builder
	for j := 0; j < majorSegs; j++ {
		phi := 2 * math.Pi * float64(j) / float64(majorSegs)
		for i := 0; i < minorSegs; i++ {
			theta := 2 * math.Pi * float64(i) / float64(minorSegs)
			r := major + minor*math.Cos(theta)
			b.vertex(mgl64.Vec3{r * math.Cos(phi), minor * math.Sin(theta), r * math.Sin(phi)}.Add(off))
		}
	}

	ma, mi := int32(majorSegs), int32(minorSegs)
	for j := int32(0); j < ma; j++ {
		for i := int32(0); i < mi; i++ {
			b.face(
				i+j*mi,
				(i+1)%mi+j*mi,
				(i+1)%mi+((j+1)%ma)*mi,
				i+((j+1)%ma)*mi,
			)
		}
	}
	return b.mesh("torus"), nil
}
