package polygon

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Plane is the fitted plane of a facet: dot(Normal, p) + D = 0.
//
// D is accumulated as -Σ dot(Normal, p_i) over the loop vertices, so it is
// the plane offset multiplied by the vertex count. MeanOffset recovers the
// mean-fit offset.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
	// Count is the number of vertices D was summed over.
	Count int
}

// MeanOffset returns D divided by the vertex count.
func (p Plane) MeanOffset() float64 {
	if p.Count == 0 {
		return 0
	}
	return p.D / float64(p.Count)
}

// Distance returns the signed distance of q from the mean-fit plane.
func (p Plane) Distance(q mgl64.Vec3) float64 {
	return p.Normal.Dot(q) + p.MeanOffset()
}

// vertex returns the position of vertex v in a packed coordinate buffer.
func vertex(coords []float64, v int32) mgl64.Vec3 {
	i := 3 * int(v)
	return mgl64.Vec3{coords[i], coords[i+1], coords[i+2]}
}

// newell accumulates the Newell vector of the loop: twice the vector area.
func newell(coords []float64, loop []int32) mgl64.Vec3 {
	var n mgl64.Vec3
	for i := range loop {
		p0 := vertex(coords, loop[i])
		p1 := vertex(coords, loop[(i+1)%len(loop)])
		n[0] += (p0[1] - p1[1]) * (p0[2] + p1[2])
		n[1] += (p0[2] - p1[2]) * (p0[0] + p1[0])
		n[2] += (p0[0] - p1[0]) * (p0[1] + p1[1])
	}
	return n
}

// EstimateNormal returns the unit normal of a possibly non-planar loop
// using Newell's method, with the default tolerance. The normal follows
// the right-hand rule on the loop's winding.
func EstimateNormal(coords []float64, loop []int32) (mgl64.Vec3, error) {
	return EstimateNormalTol(coords, loop, DefaultNormalTolerance)
}

// EstimateNormalTol is EstimateNormal with an explicit degeneracy
// tolerance on the length of the accumulated Newell vector.
func EstimateNormalTol(coords []float64, loop []int32, tol float64) (mgl64.Vec3, error) {
	if err := checkLoop(coords, loop); err != nil {
		return mgl64.Vec3{}, err
	}
	n := newell(coords, loop)
	l := n.Len()
	if l < tol {
		return mgl64.Vec3{}, errors.Wrapf(ErrDegenerateFacet, "newell vector length %g below %g", l, tol)
	}
	return n.Mul(1 / l), nil
}

// EstimatePlane returns the Newell normal and the summed plane offset D
// of the loop.
func EstimatePlane(coords []float64, loop []int32) (Plane, error) {
	return EstimatePlaneTol(coords, loop, DefaultNormalTolerance)
}

// EstimatePlaneTol is EstimatePlane with an explicit degeneracy tolerance.
func EstimatePlaneTol(coords []float64, loop []int32, tol float64) (Plane, error) {
	n, err := EstimateNormalTol(coords, loop, tol)
	if err != nil {
		return Plane{}, err
	}
	var d float64
	for _, v := range loop {
		d -= n.Dot(vertex(coords, v))
	}
	return Plane{Normal: n, D: d, Count: len(loop)}, nil
}
