package polygon

import "github.com/go-gl/mathgl/mgl64"

// Convexity returns dot(n, cross(b-a, c-a)). Positive values mean the
// interior angle at b is convex with respect to n; the magnitude is twice
// the area of triangle (a,b,c) projected onto n.
func Convexity(n, a, b, c mgl64.Vec3) float64 {
	return n.Dot(b.Sub(a).Cross(c.Sub(a)))
}

// PointInTriangle reports whether p lies on the non-negative side of all
// three directed edges (a,b), (b,c), (c,a) under Convexity, within eps.
// Points on an edge or a corner count as inside.
func PointInTriangle(n, a, b, c, p mgl64.Vec3, eps float64) bool {
	return Convexity(n, a, b, p) >= -eps &&
		Convexity(n, b, c, p) >= -eps &&
		Convexity(n, c, a, p) >= -eps
}
