package relax

import (
	"fmt"
)

// Vertex is a point on the bilinear surface z = x*y. Enumerators must set
// Z to the exact product of the coordinates they chose.
type Vertex struct {
	X float64
	Y float64
	Z float64
}

// VertexPath holds the two interpolation sequences consumed by Incremental.
// Both have one entry more than there are segments; segment i interpolates
// between Origin[i], NonOrigin[i], NonOrigin[i+1] and Origin[i+1].
type VertexPath struct {
	Origin    []Vertex
	NonOrigin []Vertex
}

// Enumerator produces the vertex path for a partitioned box. The partitions
// it receives are already validated: strictly increasing, endpoints equal
// to the variable bounds.
type Enumerator interface {
	EnumerateVertices(xPartition, yPartition []float64) (VertexPath, error)
}

// GridEnumerator is the default Enumerator. It sweeps axis aligned strips
// along the longer partition, ties favoring x; Origin vertices sit on the
// swept breakpoints at the other axis' lower bound and NonOrigin vertices
// at its upper bound, so consecutive quadruples each span one strip and the
// chained strips tile the whole box.
//
// Interior breakpoints of the shorter partition contribute no vertices: a
// single chain cannot carry a second subdivision axis. Refining one
// partition therefore only guarantees a pointwise tighter relaxation while
// that partition stays the swept one; refining the shorter partition past
// the longer one flips the sweep axis and the two geometries are not
// comparable point by point. Callers needing finer geometry supply their
// own Enumerator.
type GridEnumerator struct{}

// EnumerateVertices implements Enumerator.
func (GridEnumerator) EnumerateVertices(xPartition, yPartition []float64) (VertexPath, error) {
	if len(xPartition) < 2 || len(yPartition) < 2 {
		return VertexPath{}, fmt.Errorf("%w: partitions need at least two breakpoints, got %d and %d",
			ErrConfiguration, len(xPartition), len(yPartition))
	}

	sweep, other := xPartition, yPartition
	alongY := len(yPartition) > len(xPartition)
	if alongY {
		sweep, other = yPartition, xPartition
	}
	lo, hi := other[0], other[len(other)-1]

	path := VertexPath{
		Origin:    make([]Vertex, len(sweep)),
		NonOrigin: make([]Vertex, len(sweep)),
	}
	for i, t := range sweep {
		if alongY {
			path.Origin[i] = Vertex{X: lo, Y: t, Z: lo * t}
			path.NonOrigin[i] = Vertex{X: hi, Y: t, Z: hi * t}
		} else {
			path.Origin[i] = Vertex{X: t, Y: lo, Z: t * lo}
			path.NonOrigin[i] = Vertex{X: t, Y: hi, Z: t * hi}
		}
	}
	return path, nil
}

// checkVertexPath verifies the enumerator contract for n segments: both
// sequences have n+1 vertices and every vertex lies exactly on the surface.
func checkVertexPath(path VertexPath, n int) error {
	if len(path.Origin) != n+1 || len(path.NonOrigin) != n+1 {
		return fmt.Errorf("%w: enumerator returned %d origin and %d non origin vertices, want %d each",
			ErrContract, len(path.Origin), len(path.NonOrigin), n+1)
	}
	for i, v := range path.Origin {
		if v.Z != v.X*v.Y {
			return fmt.Errorf("%w: origin vertex %d off the surface: z=%g, x*y=%g", ErrContract, i+1, v.Z, v.X*v.Y)
		}
	}
	for i, v := range path.NonOrigin {
		if v.Z != v.X*v.Y {
			return fmt.Errorf("%w: non origin vertex %d off the surface: z=%g, x*y=%g", ErrContract, i+1, v.Z, v.X*v.Y)
		}
	}
	return nil
}
