package relax_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/milpkit/milpkit/internal/utils"
	"github.com/milpkit/milpkit/mip"
	"github.com/milpkit/milpkit/relax"
	"github.com/milpkit/milpkit/test"
)

func TestIncrementalGrid(t *testing.T) {
	assert := test.NewAssert(t)

	// two segments along x, y contributes its bounds only
	m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
	info, err := relax.NewIncremental(m).Build(x, y, z, []float64{0, 1, 2}, []float64{0, 3})
	assert.NoError(err)

	assert.Equal([]string{"delta_1", "delta_2", "delta_3", "z_bin"}, info.VariableNames())
	assert.Equal([]string{"x_con", "y_con", "z_con", "first_delta", "below_z", "above_z"}, info.ConstraintNames())
	assert.Equal(7, info.NumVariables())
	assert.Equal(6, info.NumConstraints())
	assert.Equal(10, m.NumVariables())
	assert.Equal(6, m.NumConstraints())

	d1 := info.Variables("delta_1")
	d2 := info.Variables("delta_2")
	d3 := info.Variables("delta_3")
	zb := info.Variables("z_bin")
	assert.Len(zb, 1)

	assert.Equal("delta_1_2", m.VariableName(d1[1]))
	assert.Equal("z_bin_1", m.VariableName(zb[0]))
	kind, err := m.KindOf(zb[0])
	assert.NoError(err)
	assert.Equal(mip.Binary, kind)
	assert.Equal("below_z_2", m.ConstraintName(info.Constraints("below_z")[0]))
	assert.Equal("above_z_2", m.ConstraintName(info.Constraints("above_z")[0]))

	assert.Run(func(assert *test.Assert) {
		// all weights at zero pin the point to the chain origin
		assert.Feasible(m, make([]float64, m.NumCols()))
	}, "origin")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 1, 3, 3
		p[d2[0].Index()] = 1
		assert.Feasible(m, p)
	}, "first segment far vertex")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 2, 3, 6
		p[d3[0].Index()], p[zb[0].Index()], p[d2[1].Index()] = 1, 1, 1
		assert.Feasible(m, p)
	}, "chain end")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()] = 0.5
		p[d3[0].Index()] = 0.5
		assert.Feasible(m, p)
	}, "half segment")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 1, 1.5, 1.5
		p[d3[0].Index()], p[zb[0].Index()], p[d1[1].Index()] = 1, 1, 0.5
		assert.Feasible(m, p)
	}, "partial second segment")

	assert.Run(func(assert *test.Assert) {
		// opening segment two without its binary up
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 1, 3, 6
		p[d2[1].Index()] = 1
		assert.Infeasible(m, p, "below_z")
	}, "skipped segment")

	assert.Run(func(assert *test.Assert) {
		// binary up before segment one is traversed
		p := make([]float64, m.NumCols())
		p[zb[0].Index()] = 1
		assert.Infeasible(m, p, "above_z")
	}, "premature binary")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 2, 3, 0
		p[d3[0].Index()], p[zb[0].Index()], p[d2[1].Index()] = 1, 1, 1
		assert.Infeasible(m, p, "z_con")
	}, "off surface")
}

func TestIncrementalSingleSegment(t *testing.T) {
	assert := test.NewAssert(t)

	m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
	info, err := relax.NewIncremental(m).Build(x, y, z, []float64{0, 2}, []float64{0, 3})
	assert.NoError(err)

	// a single segment needs no ordering machinery
	assert.Equal([]string{"delta_1", "delta_2", "delta_3"}, info.VariableNames())
	assert.Nil(info.Variables("z_bin"))
	assert.Equal([]string{"x_con", "y_con", "z_con", "first_delta"}, info.ConstraintNames())
	assert.Equal(3, info.NumVariables())
	assert.Equal(4, info.NumConstraints())

	d1 := info.Variables("delta_1")[0]
	d2 := info.Variables("delta_2")[0]
	d3 := info.Variables("delta_3")[0]

	// x = 2*(d2+d3), y = 3*(d1+d2), z = 6*d2
	corners := []struct {
		x, y, z, w1, w2, w3 float64
	}{
		{0, 0, 0, 0, 0, 0},
		{0, 3, 0, 1, 0, 0},
		{2, 3, 6, 0, 1, 0},
		{2, 0, 0, 0, 0, 1},
		{1, 1, 1, 1.0 / 6, 1.0 / 6, 1.0 / 3},
	}
	for _, c := range corners {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = c.x, c.y, c.z
		p[d1.Index()], p[d2.Index()], p[d3.Index()] = c.w1, c.w2, c.w3
		assert.Feasible(m, p)
	}

	p := make([]float64, m.NumCols())
	p[z.Index()] = 1
	assert.Infeasible(m, p, "z_con")
}

func TestIncrementalSweepAlongY(t *testing.T) {
	assert := test.NewAssert(t)

	// y has the longer partition, so the chain climbs y
	m, x, y, z := productModel(mip.Interval{Lower: 1, Upper: 2}, mip.Interval{Lower: 0, Upper: 4})
	info, err := relax.NewIncremental(m).Build(x, y, z, []float64{1, 2}, []float64{0, 2, 4})
	assert.NoError(err)

	d1 := info.Variables("delta_1")
	d2 := info.Variables("delta_2")
	d3 := info.Variables("delta_3")
	zb := info.Variables("z_bin")
	assert.Len(zb, 1)

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()] = 1
		assert.Feasible(m, p)
	}, "origin")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 2, 2, 4
		p[d2[0].Index()] = 1
		assert.Feasible(m, p)
	}, "far vertex")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 2, 0, 0
		p[d1[0].Index()] = 1
		assert.Feasible(m, p)
	}, "near vertex")

	assert.Run(func(assert *test.Assert) {
		p := make([]float64, m.NumCols())
		p[x.Index()], p[y.Index()], p[z.Index()] = 1, 4, 4
		p[d3[0].Index()], p[zb[0].Index()], p[d3[1].Index()] = 1, 1, 1
		assert.Feasible(m, p)
	}, "spine end")
}

func TestIncrementalPrefix(t *testing.T) {
	assert := test.NewAssert(t)

	m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
	info, err := relax.NewIncremental(m, relax.WithPrefix("bl_")).Build(x, y, z, []float64{0, 1, 2}, []float64{0, 3})
	assert.NoError(err)

	assert.Equal("bl_delta_1_1", m.VariableName(info.Variables("delta_1")[0]))
	assert.Equal("bl_z_bin_1", m.VariableName(info.Variables("z_bin")[0]))
	assert.Equal("bl_x_con", m.ConstraintName(info.Constraints("x_con")[0]))
	assert.Equal("bl_below_z_2", m.ConstraintName(info.Constraints("below_z")[0]))
	assert.Equal([]string{"delta_1", "delta_2", "delta_3", "z_bin"}, info.VariableNames())
}

func TestIncrementalValidation(t *testing.T) {
	assert := test.NewAssert(t)

	build := func(assert *test.Assert, xP, yP []float64, fragment string) {
		m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
		cols, rows := m.NumCols(), m.NumRows()
		_, err := relax.NewIncremental(m).Build(x, y, z, xP, yP)
		assert.ErrorIs(err, relax.ErrConfiguration)
		assert.ErrorContains(err, fragment)
		assert.Equal(cols, m.NumCols())
		assert.Equal(rows, m.NumRows())
	}

	assert.Run(func(assert *test.Assert) {
		build(assert, []float64{0}, []float64{0, 3}, "at least two breakpoints")
	}, "short partition")

	assert.Run(func(assert *test.Assert) {
		build(assert, []float64{0, 1}, []float64{0, 3}, "x partition spans")
	}, "endpoints off the bounds")

	assert.Run(func(assert *test.Assert) {
		build(assert, []float64{0, 1.5, 1.5, 2}, []float64{0, 3}, "strictly increasing")
	}, "repeated breakpoint")

	assert.Run(func(assert *test.Assert) {
		build(assert, []float64{0, 2}, []float64{3, 0}, "strictly increasing")
	}, "decreasing")

	assert.Run(func(assert *test.Assert) {
		build(assert, []float64{0, math.NaN(), 2}, []float64{0, 3}, "non finite")
	}, "nan breakpoint")

	assert.Run(func(assert *test.Assert) {
		m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
		assert.NoError(m.RemoveVariable(z))
		_, err := relax.NewIncremental(m).Build(x, y, z, []float64{0, 2}, []float64{0, 3})
		assert.ErrorIs(err, relax.ErrConfiguration)
	}, "removed z")
}

// shortPath returns one vertex per sequence regardless of the partitions.
type shortPath struct{}

func (shortPath) EnumerateVertices(xP, yP []float64) (relax.VertexPath, error) {
	return relax.VertexPath{Origin: make([]relax.Vertex, 1), NonOrigin: make([]relax.Vertex, 1)}, nil
}

// offSurface perturbs one vertex off the bilinear surface.
type offSurface struct{}

func (offSurface) EnumerateVertices(xP, yP []float64) (relax.VertexPath, error) {
	path, err := relax.GridEnumerator{}.EnumerateVertices(xP, yP)
	if err != nil {
		return path, err
	}
	path.NonOrigin[0].Z += 0.5
	return path, nil
}

type failingEnum struct{}

var errEnumDown = errors.New("enumerator down")

func (failingEnum) EnumerateVertices(xP, yP []float64) (relax.VertexPath, error) {
	return relax.VertexPath{}, errEnumDown
}

// flippedGrid swaps the two sequences, anchoring the chain at the upper y
// edge instead of the lower one.
type flippedGrid struct{}

func (flippedGrid) EnumerateVertices(xP, yP []float64) (relax.VertexPath, error) {
	path, err := relax.GridEnumerator{}.EnumerateVertices(xP, yP)
	if err != nil {
		return path, err
	}
	path.Origin, path.NonOrigin = path.NonOrigin, path.Origin
	return path, nil
}

func TestIncrementalEnumeratorContract(t *testing.T) {
	assert := test.NewAssert(t)

	build := func(assert *test.Assert, e relax.Enumerator) error {
		m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
		cols, rows := m.NumCols(), m.NumRows()
		_, err := relax.NewIncremental(m, relax.WithEnumerator(e)).Build(x, y, z, []float64{0, 1, 2}, []float64{0, 3})
		assert.Equal(cols, m.NumCols())
		assert.Equal(rows, m.NumRows())
		return err
	}

	assert.Run(func(assert *test.Assert) {
		err := build(assert, shortPath{})
		assert.ErrorIs(err, relax.ErrContract)
	}, "wrong length")

	assert.Run(func(assert *test.Assert) {
		err := build(assert, offSurface{})
		assert.ErrorIs(err, relax.ErrContract)
		assert.ErrorContains(err, "off the surface")
	}, "off surface")

	assert.Run(func(assert *test.Assert) {
		// the enumerator's own error comes back untouched
		err := build(assert, failingEnum{})
		assert.ErrorIs(err, errEnumDown)
		assert.NotErrorIs(err, relax.ErrContract)
	}, "enumerator failure")
}

func TestIncrementalCustomEnumerator(t *testing.T) {
	assert := test.NewAssert(t)

	m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
	_, err := relax.NewIncremental(m, relax.WithEnumerator(flippedGrid{})).Build(x, y, z, []float64{0, 2}, []float64{0, 3})
	assert.NoError(err)

	// zero weights now sit on the flipped origin (0, 3, 0)
	p := make([]float64, m.NumCols())
	p[y.Index()] = 3
	assert.Feasible(m, p)

	assert.Infeasible(m, make([]float64, m.NumCols()), "y_con")
}

func TestIncrementalSizes(t *testing.T) {
	assert := test.NewAssert(t)

	for n := 1; n <= 6; n++ {
		assert.Run(func(assert *test.Assert) {
			m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 2}, mip.Interval{Lower: 0, Upper: 3})
			info, err := relax.NewIncremental(m).Build(x, y, z, utils.Linspace(0, 2, n+1), []float64{0, 3})
			assert.NoError(err)
			assert.Equal(4*n-1, info.NumVariables())
			assert.Equal(2*n+2, info.NumConstraints())
			assert.Equal(3+4*n-1, m.NumVariables())
			assert.Equal(2*n+2, m.NumConstraints())
		}, fmt.Sprintf("%d segments", n))
	}
}

func TestIncrementalChain(t *testing.T) {
	xP := []float64{0, 0.5, 1.25, 3, 4}
	yP := []float64{-1, 2}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	properties.Property("prefix chains land on feasible points", prop.ForAll(
		func(k int, a, b, c float64) bool {
			if s := a + b + c; s > 1 {
				a, b, c = a/s, b/s, c/s
			}

			m, x, y, z := productModel(mip.Interval{Lower: 0, Upper: 4}, mip.Interval{Lower: -1, Upper: 2})
			info, err := relax.NewIncremental(m).Build(x, y, z, xP, yP)
			if err != nil {
				return false
			}
			path, err := relax.GridEnumerator{}.EnumerateVertices(xP, yP)
			if err != nil {
				return false
			}

			d1 := info.Variables("delta_1")
			d2 := info.Variables("delta_2")
			d3 := info.Variables("delta_3")
			zb := info.Variables("z_bin")

			p := make([]float64, m.NumCols())
			px, py, pz := path.Origin[0].X, path.Origin[0].Y, path.Origin[0].Z
			step := func(from, to relax.Vertex, w float64) {
				px += w * (to.X - from.X)
				py += w * (to.Y - from.Y)
				pz += w * (to.Z - from.Z)
			}

			// traverse k full segments, then spread the weights in segment k+1
			for i := 0; i < k; i++ {
				p[d3[i].Index()] = 1
				p[zb[i].Index()] = 1
				step(path.Origin[i], path.Origin[i+1], 1)
			}
			p[d1[k].Index()] = a
			p[d2[k].Index()] = b
			p[d3[k].Index()] = c
			step(path.Origin[k], path.NonOrigin[k], a)
			step(path.Origin[k], path.NonOrigin[k+1], b)
			step(path.Origin[k], path.Origin[k+1], c)

			p[x.Index()], p[y.Index()], p[z.Index()] = px, py, pz
			ok, err := m.Feasible(p, test.DefaultTolerance)
			return err == nil && ok
		},
		gen.IntRange(0, 3),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
