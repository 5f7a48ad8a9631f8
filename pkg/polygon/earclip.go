package polygon

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/btree"
	"github.com/pkg/errors"
)

// Triangulate splits one simple loop into len(loop)-2 triangles by ear
// clipping. The result is packed as repeated (3, a, b, c) groups and keeps
// the winding of the input loop.
//
// The loop may be non-convex, mildly non-planar, and may repeat a vertex
// id where a bridge joins two contours into one simple boundary. A
// triangle is returned unchanged. On ErrTriangulationIncomplete or
// ErrDegenerateFacet no partial output is returned; callers are expected
// to keep the original loop instead.
func Triangulate(coords []float64, loop []int32, opts Options) ([]int32, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkLoop(coords, loop); err != nil {
		return nil, err
	}
	if len(loop) == 3 {
		return []int32{3, loop[0], loop[1], loop[2]}, nil
	}

	n, err := EstimateNormalTol(coords, loop, opts.NormalTolerance)
	if err != nil {
		return nil, err
	}

	r := newRing(coords, loop, n, opts.Epsilon)
	switch opts.Policy {
	case PolicyBestEar:
		r.clipBestEar()
	default:
		r.clipNaive()
	}

	if r.live != 2 {
		return nil, errors.Wrapf(ErrTriangulationIncomplete,
			"%d of %d vertices left after %d ear tests", r.live, len(loop), r.tries)
	}
	return r.tris, nil
}

// TriangulateFace is Triangulate for a packed face that still carries its
// leading vertex count, as stored in a mesh face buffer.
func TriangulateFace(coords []float64, face []int32, opts Options) ([]int32, error) {
	if len(face) == 0 {
		return nil, errors.Wrap(ErrInvalidLoop, "empty face")
	}
	if int(face[0]) != len(face)-1 {
		return nil, errors.Wrapf(ErrInvalidLoop, "face count %d does not match %d indices", face[0], len(face)-1)
	}
	return Triangulate(coords, face[1:], opts)
}

// ring is the circular doubly-linked list over loop-local positions that
// ear clipping works on. Positions are never reused: a clipped position
// keeps its next pointer, so a cursor sitting on it can still advance.
type ring struct {
	vert      []int32      // input vertex id per position
	pos       []mgl64.Vec3 // coordinates per position
	next      []int
	prev      []int
	convexity []float64 // cached, > eps means ear candidate

	normal mgl64.Vec3
	eps    float64

	live  int     // positions still linked
	tries int     // ear tests performed
	tris  []int32 // packed output
}

func newRing(coords []float64, loop []int32, n mgl64.Vec3, eps float64) *ring {
	k := len(loop)
	r := &ring{
		vert:      make([]int32, k),
		pos:       make([]mgl64.Vec3, k),
		next:      make([]int, k),
		prev:      make([]int, k),
		convexity: make([]float64, k),
		normal:    n,
		eps:       eps,
		live:      k,
		tris:      make([]int32, 0, 4*(k-2)),
	}
	for i, v := range loop {
		r.vert[i] = v
		r.pos[i] = vertex(coords, v)
		r.prev[i] = (i - 1 + k) % k
		r.next[i] = (i + 1) % k
	}
	for i := range loop {
		r.convexity[i] = r.convexityAt(i)
	}
	return r
}

func (r *ring) convexityAt(i int) float64 {
	return Convexity(r.normal, r.pos[r.prev[i]], r.pos[i], r.pos[r.next[i]])
}

// isEar tests every other live position for containment in the triangle
// (prev, curr, next). Positions sharing a vertex id with a corner are
// skipped so bridge vertices do not block their own ear.
func (r *ring) isEar(curr int) bool {
	r.tries++
	p, nx := r.prev[curr], r.next[curr]
	a, b, c := r.pos[p], r.pos[curr], r.pos[nx]
	va, vb, vc := r.vert[p], r.vert[curr], r.vert[nx]
	for test := nx; test != curr; test = r.next[test] {
		v := r.vert[test]
		if v == va || v == vb || v == vc {
			continue
		}
		if PointInTriangle(r.normal, a, b, c, r.pos[test], r.eps) {
			return false
		}
	}
	return true
}

// clip emits the ear at curr, unlinks it and refreshes the convexity of
// its two neighbours. It returns those neighbours.
func (r *ring) clip(curr int) (p, nx int) {
	p, nx = r.prev[curr], r.next[curr]
	r.tris = append(r.tris, 3, r.vert[p], r.vert[curr], r.vert[nx])
	r.next[p] = nx
	r.prev[nx] = p
	r.live--
	r.convexity[p] = r.convexityAt(p)
	r.convexity[nx] = r.convexityAt(nx)
	return p, nx
}

// clipNaive walks the ring, clipping every valid ear it passes. A simple
// loop loses at least one vertex per lap, so k*k steps is ample; running
// out means the input is not simple or the tolerance cannot resolve it.
func (r *ring) clipNaive() {
	k := len(r.vert)
	maxSteps := k * k
	curr := 0
	for steps := 0; r.live > 2 && steps < maxSteps; steps++ {
		if r.convexity[curr] > r.eps && r.isEar(curr) {
			r.clip(curr)
		}
		curr = r.next[curr]
	}
}

// ear orders candidate ears by convexity, then by position.
type ear struct {
	convexity float64
	index     int
}

func earLess(a, b ear) bool {
	return a.convexity < b.convexity || (a.convexity == b.convexity && a.index < b.index)
}

// clipBestEar keeps every convex position in an ordered set and clips the
// smallest valid ear each round. Small ears are the least likely to
// enclose an unrelated vertex, which cuts down on full-ring scans.
func (r *ring) clipBestEar() {
	set := btree.NewG[ear](8, earLess)
	for i := range r.vert {
		if r.convexity[i] > r.eps {
			set.ReplaceOrInsert(ear{r.convexity[i], i})
		}
	}

	for rounds := len(r.vert) - 2; r.live > 2 && rounds > 0; rounds-- {
		found := -1
		set.Ascend(func(e ear) bool {
			if r.isEar(e.index) {
				found = e.index
				return false
			}
			return true
		})
		if found < 0 {
			return
		}

		// The neighbours leave the set before their cached convexity
		// changes and re-enter only if they are still convex.
		p, nx := r.prev[found], r.next[found]
		set.Delete(ear{r.convexity[found], found})
		set.Delete(ear{r.convexity[p], p})
		set.Delete(ear{r.convexity[nx], nx})
		r.clip(found)
		if r.convexity[p] > r.eps {
			set.ReplaceOrInsert(ear{r.convexity[p], p})
		}
		if r.convexity[nx] > r.eps {
			set.ReplaceOrInsert(ear{r.convexity[nx], nx})
		}
	}
}
