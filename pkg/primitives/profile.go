package primitives

import (
	"math"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Profile is a closed 2D outline: Points holds x,y pairs and Lines the
// order in which they are visited. The outline must be simple; either
// winding is accepted.
type Profile struct {
	Points []float64
	Lines  []int32
}

// NewProfile builds a Profile that visits points in the order given.
func NewProfile(xy ...float64) Profile {
	lines := make([]int32, len(xy)/2)
	for i := range lines {
		lines[i] = int32(i)
	}
	return Profile{Points: xy, Lines: lines}
}

func (p Profile) point(i int32) (x, y float64) {
	return p.Points[2*i], p.Points[2*i+1]
}

// area is the signed shoelace area of the outline, positive when it is
// wound counterclockwise.
func (p Profile) area() float64 {
	var a float64
	for i, v := range p.Lines {
		x0, y0 := p.point(v)
		x1, y1 := p.point(p.Lines[(i+1)%len(p.Lines)])
		a += x0*y1 - x1*y0
	}
	return a / 2
}

func (p Profile) validate() error {
	if len(p.Points)%2 != 0 {
		return errors.Wrapf(ErrInvalidParameter, "profile has %d coordinates, want x,y pairs", len(p.Points))
	}
	if len(p.Lines) < 3 {
		return errors.Wrapf(ErrInvalidParameter, "profile has %d lines, want at least 3", len(p.Lines))
	}
	n := int32(len(p.Points) / 2)
	for i, v := range p.Lines {
		if v < 0 || v >= n {
			return errors.Wrapf(ErrInvalidParameter, "profile line %d references point %d of %d", i, v, n)
		}
	}
	if math.Abs(p.area()) < axisTolerance*axisTolerance {
		return errors.Wrap(ErrInvalidParameter, "profile encloses no area")
	}
	return nil
}

// reversed returns the line order reversed.
func reversed(lines []int32) []int32 {
	out := make([]int32, len(lines))
	for i, v := range lines {
		out[len(lines)-1-i] = v
	}
	return out
}

// Extrusion sweeps the profile from z=0 to z=distance. A negative
// distance extrudes downwards; the result is outward-wound either way.
func Extrusion(p Profile, distance float64) (*kernel.Mesh, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if distance == 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return nil, errors.Wrapf(ErrInvalidParameter, "extrusion distance must be non-zero and finite, got %v", distance)
	}

	lines := p.Lines
	if (p.area() > 0) != (distance > 0) {
		lines = reversed(lines)
	}

	var b builder
	n := int32(len(p.Points) / 2)
	for _, z := range []float64{0, distance} {
		for i := int32(0); i < n; i++ {
			x, y := p.point(i)
			b.vertex(mgl64.Vec3{x, y, z})
		}
	}

	top := make([]int32, len(lines))
	for i, v := range lines {
		top[i] = v + n
	}
	b.face(reversed(lines)...)
	b.face(top...)
	for i, v := range lines {
		w := lines[(i+1)%len(lines)]
		b.face(v, w, w+n, v+n)
	}
	return b.mesh("extrusion"), nil
}

// SurfaceOfRevolution sweeps the profile, read as (x, r) with r >= 0,
// around the X axis by angle degrees in the given number of steps.
// Profile points on the axis are shared between steps, so faces touching
// the axis become triangles and edges along it produce nothing. A partial
// revolution is closed with the profile itself at both ends.
func SurfaceOfRevolution(p Profile, angle float64, segs int) (*kernel.Mesh, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := segments("segments", segs); err != nil {
		return nil, err
	}
	if !(angle > 0) || angle > 360 {
		return nil, errors.Wrapf(ErrInvalidParameter, "revolution angle must be in (0, 360], got %v", angle)
	}
	for _, v := range p.Lines {
		if _, r := p.point(v); r < -axisTolerance {
			return nil, errors.Wrapf(ErrInvalidParameter, "profile point %d has negative radius %v", v, r)
		}
	}

	// Sweeping a counterclockwise (x, r) outline by positive angles
	// produces inward faces.
	lines := p.Lines
	if p.area() > 0 {
		lines = reversed(lines)
	}
	n := len(lines)

	full := math.Abs(angle-360) < 1e-5
	steps := segs + 1
	if full {
		steps = segs
	}

	// ids[j][i] is the vertex of profile position i at step j.
	ids := make([][]int32, steps)
	var b builder
	dtheta := mgl64.DegToRad(angle) / float64(segs)
	for j := range ids {
		ids[j] = make([]int32, n)
		c, s := math.Cos(float64(j)*dtheta), math.Sin(float64(j)*dtheta)
		for i, v := range lines {
			x, r := p.point(v)
			if j > 0 && math.Abs(r) < axisTolerance {
				ids[j][i] = ids[j-1][i]
				continue
			}
			ids[j][i] = b.vertex(mgl64.Vec3{x, c * r, s * r})
		}
	}

	for j := 0; j < segs; j++ {
		cur, nxt := ids[j], ids[(j+1)%steps]
		for i := 0; i < n; i++ {
			v0, v1 := cur[i], nxt[i]
			v2, v3 := cur[(i+1)%n], nxt[(i+1)%n]
			switch {
			case v0 == v1 && v2 == v3:
				// Edge along the axis.
			case v0 == v1:
				b.face(v3, v2, v0)
			case v2 == v3:
				b.face(v0, v1, v2)
			default:
				b.face(v1, v3, v2, v0)
			}
		}
	}

	if !full {
		b.face(ids[0]...)
		b.face(reversed(ids[segs])...)
	}
	return b.mesh("revolution"), nil
}
