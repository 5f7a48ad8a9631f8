package polygon

import "github.com/pkg/errors"

var (
	// ErrDegenerateFacet means the loop has (near) zero area and no normal
	// can be estimated for it.
	ErrDegenerateFacet = errors.New("degenerate facet")

	// ErrTriangulationIncomplete means ear clipping could not reduce the
	// loop to two vertices: the loop is not simple, or the tolerance
	// could not resolve it. Callers fall back to the untriangulated loop.
	ErrTriangulationIncomplete = errors.New("triangulation incomplete")

	// ErrInvalidLoop means the loop has fewer than three vertices or
	// references a vertex outside the coordinate buffer.
	ErrInvalidLoop = errors.New("invalid loop")
)

// checkLoop validates loop against a coordinate buffer.
func checkLoop(coords []float64, loop []int32) error {
	if len(loop) < 3 {
		return errors.Wrapf(ErrInvalidLoop, "loop has %d vertices", len(loop))
	}
	nv := int32(len(coords) / 3)
	for i, v := range loop {
		if v < 0 || v >= nv {
			return errors.Wrapf(ErrInvalidLoop, "loop position %d references vertex %d of %d", i, v, nv)
		}
	}
	return nil
}
