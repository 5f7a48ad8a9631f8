package kernel

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ErrMalformedMesh is returned when a face buffer cannot be traversed:
// a loop with fewer than 3 vertices, a truncated trailing loop, or an
// index outside the coordinate buffer.
var ErrMalformedMesh = errors.New("malformed mesh")

// Mesh is a packed polygon mesh.
// Coords holds 3 floats per vertex (x,y,z). Faces is a concatenation of
// variable-length loops, each encoded as its vertex count k followed by
// k vertex indices in winding order.
type Mesh struct {
	Coords []float64 `json:"coords"` // [x0,y0,z0, x1,y1,z1, ...]
	Faces  []int32   `json:"faces"`  // [k, v0..vk-1, k, v0..vk-1, ...]
	Name   string    `json:"name"`   // which script binding this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Coords) / 3
}

// FaceCount returns the number of loops in the face buffer. The buffer has
// no offset index, so this walks it. Counting stops at the first loop that
// Validate would reject for its arity or for running past the buffer.
func (m *Mesh) FaceCount() int {
	n := 0
	for pos := 0; pos < len(m.Faces); {
		k := int(m.Faces[pos])
		if k < 3 || pos+1+k > len(m.Faces) {
			break
		}
		n++
		pos += k + 1
	}
	return n
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Coords) == 0
}

// IsTriangulated reports whether every loop has exactly three vertices.
func (m *Mesh) IsTriangulated() bool {
	for pos := 0; pos < len(m.Faces); pos += int(m.Faces[pos]) + 1 {
		if m.Faces[pos] != 3 {
			return false
		}
	}
	return true
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int32) mgl64.Vec3 {
	j := 3 * int(i)
	return mgl64.Vec3{m.Coords[j], m.Coords[j+1], m.Coords[j+2]}
}

// Loops returns the vertex index slice of every loop, in buffer order and
// without the leading counts. The slices alias Faces and must not be
// modified. It fails on the first loop that breaks the face buffer
// invariants.
func (m *Mesh) Loops() ([][]int32, error) {
	var loops [][]int32
	err := m.walk(func(face int, loop []int32) error {
		loops = append(loops, loop)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loops, nil
}

// ForEachLoop calls fn for every loop in order. Iteration stops at the
// first error from fn or from traversal.
func (m *Mesh) ForEachLoop(fn func(face int, loop []int32) error) error {
	return m.walk(fn)
}

// Validate checks the structural invariants of the face buffer.
func (m *Mesh) Validate() error {
	return m.walk(func(int, []int32) error { return nil })
}

func (m *Mesh) walk(fn func(face int, loop []int32) error) error {
	nv := int32(m.VertexCount())
	if len(m.Coords)%3 != 0 {
		return errors.Wrapf(ErrMalformedMesh, "coordinate buffer length %d is not a multiple of 3", len(m.Coords))
	}
	face := 0
	for pos := 0; pos < len(m.Faces); face++ {
		k := int(m.Faces[pos])
		if k < 3 {
			return errors.Wrapf(ErrMalformedMesh, "face %d at offset %d has %d vertices", face, pos, k)
		}
		if pos+1+k > len(m.Faces) {
			return errors.Wrapf(ErrMalformedMesh, "face %d at offset %d is truncated", face, pos)
		}
		loop := m.Faces[pos+1 : pos+1+k : pos+1+k]
		for _, v := range loop {
			if v < 0 || v >= nv {
				return errors.Wrapf(ErrMalformedMesh, "face %d references vertex %d of %d", face, v, nv)
			}
		}
		if err := fn(face, loop); err != nil {
			return err
		}
		pos += k + 1
	}
	return nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Coords: append([]float64(nil), m.Coords...),
		Faces:  append([]int32(nil), m.Faces...),
		Name:   m.Name,
	}
}

// Bounds returns the axis-aligned bounding box of the coordinates.
// An empty mesh has zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	copy(min[:], m.Coords[0:3])
	copy(max[:], m.Coords[0:3])
	for i := 3; i+2 < len(m.Coords); i += 3 {
		for j := 0; j < 3; j++ {
			c := m.Coords[i+j]
			if c < min[j] {
				min[j] = c
			}
			if c > max[j] {
				max[j] = c
			}
		}
	}
	return min, max
}

// AppendLoop appends one packed loop (count followed by indices) to faces.
func AppendLoop(faces []int32, loop ...int32) []int32 {
	faces = append(faces, int32(len(loop)))
	return append(faces, loop...)
}

// SignedVolume returns the enclosed volume, computed by fanning every loop
// from its first vertex. It is positive for a closed mesh with outward
// winding and meaningless for an open one. Summation stops at the first malformed loop.
func (m *Mesh) SignedVolume() float64 {
	var v float64
	_ = m.walk(func(_ int, loop []int32) error {
		a := m.Vertex(loop[0])
		for i := 1; i+1 < len(loop); i++ {
			v += a.Dot(m.Vertex(loop[i]).Cross(m.Vertex(loop[i+1])))
		}
		return nil
	})
	return v / 6
}
