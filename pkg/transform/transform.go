// Package transform applies affine transforms to packed meshes. Results
// are new meshes; inputs are never modified. Transforms that mirror the
// mesh reverse every loop so outward faces stay outward.
package transform

import (
	"math"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

var (
	// ErrSingular is returned for transforms that collapse volume.
	ErrSingular = errors.New("singular transform")
	// ErrNotAffine is returned for matrices with a projective row.
	ErrNotAffine = errors.New("transform is not affine")
)

// singularTolerance bounds |det| below which a matrix is rejected.
const singularTolerance = 1e-12

// RotationMatrix returns the rotation for Euler angles in degrees,
// applied about X first, then Y, then Z.
func RotationMatrix(x, y, z float64) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(x))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(y))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(z))
	return rz.Mul4(ry).Mul4(rx)
}

// Apply transforms every vertex of m by t.
func Apply(m *kernel.Mesh, t mgl64.Mat4) (*kernel.Mesh, error) {
	if t.At(3, 0) != 0 || t.At(3, 1) != 0 || t.At(3, 2) != 0 || t.At(3, 3) != 1 {
		return nil, errors.Wrapf(ErrNotAffine, "bottom row %v", t.Row(3))
	}
	det := t.Det()
	if math.Abs(det) < singularTolerance || math.IsNaN(det) {
		return nil, errors.Wrapf(ErrSingular, "determinant %g", det)
	}
	return apply(m, t, det < 0), nil
}

func apply(m *kernel.Mesh, t mgl64.Mat4, mirror bool) *kernel.Mesh {
	out := &kernel.Mesh{
		Coords: make([]float64, len(m.Coords)),
		Name:   m.Name,
	}
	for i := 0; i+2 < len(m.Coords); i += 3 {
		p := t.Mul4x1(mgl64.Vec4{m.Coords[i], m.Coords[i+1], m.Coords[i+2], 1})
		out.Coords[i], out.Coords[i+1], out.Coords[i+2] = p[0], p[1], p[2]
	}
	if !mirror {
		out.Faces = append([]int32(nil), m.Faces...)
		return out
	}
	out.Faces = reverseLoops(m.Faces)
	return out
}

// reverseLoops returns a copy of faces with every loop's winding
// reversed. The first vertex of each loop stays first. A truncated tail
// is copied unchanged.
func reverseLoops(faces []int32) []int32 {
	out := make([]int32, len(faces))
	copy(out, faces)
	for pos := 0; pos < len(out); {
		k := int(out[pos])
		if k < 1 || pos+1+k > len(out) {
			break
		}
		loop := out[pos+2 : pos+1+k]
		for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
			loop[i], loop[j] = loop[j], loop[i]
		}
		pos += k + 1
	}
	return out
}

// Translate moves m by (x, y, z).
func Translate(m *kernel.Mesh, x, y, z float64) *kernel.Mesh {
	return apply(m, mgl64.Translate3D(x, y, z), false)
}

// Rotate rotates m about the origin by Euler angles in degrees. See
// RotationMatrix for the order.
func Rotate(m *kernel.Mesh, x, y, z float64) *kernel.Mesh {
	return apply(m, RotationMatrix(x, y, z), false)
}

// Scale scales m about the origin. Negative factors mirror the mesh; a
// zero factor is rejected.
func Scale(m *kernel.Mesh, x, y, z float64) (*kernel.Mesh, error) {
	return Apply(m, mgl64.Scale3D(x, y, z))
}

// MultMatrix applies the affine transform given as the top three rows of
// a row-major 4x4 matrix.
func MultMatrix(m *kernel.Mesh, rows [3][4]float64) (*kernel.Mesh, error) {
	t := mgl64.Mat4FromRows(
		mgl64.Vec4(rows[0]),
		mgl64.Vec4(rows[1]),
		mgl64.Vec4(rows[2]),
		mgl64.Vec4{0, 0, 0, 1},
	)
	return Apply(m, t)
}
