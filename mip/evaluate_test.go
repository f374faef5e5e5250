package mip_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/milpkit/milpkit/mip"
)

func TestViolations(t *testing.T) {
	t.Run("dimension", func(t *testing.T) {
		assert := require.New(t)
		m := mip.NewModel()
		m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 2})
		_, err := m.Violations([]float64{1, 2}, 1e-9)
		assert.ErrorIs(err, mip.ErrPointDimension)
	})

	t.Run("bounds", func(t *testing.T) {
		assert := require.New(t)
		m := mip.NewModel()
		m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 2})

		vs, err := m.Violations([]float64{2.5}, 1e-9)
		assert.NoError(err)
		assert.Len(vs, 1)
		assert.Equal("x", vs[0].Subject)
		assert.Contains(vs[0].Detail, "above upper bound")
		assert.InDelta(0.5, vs[0].Amount, 1e-12)
		assert.Contains(vs[0].String(), "x: ")

		vs, err = m.Violations([]float64{-0.25}, 1e-9)
		assert.NoError(err)
		assert.Len(vs, 1)
		assert.Contains(vs[0].Detail, "below lower bound")
	})

	t.Run("integrality", func(t *testing.T) {
		assert := require.New(t)
		m := mip.NewModel()
		m.NewInteger("n", mip.Interval{Lower: 0, Upper: 5})

		vs, err := m.Violations([]float64{1.5}, 1e-9)
		assert.NoError(err)
		assert.Len(vs, 1)
		assert.Equal("n", vs[0].Subject)
		assert.Contains(vs[0].Detail, "not integral")

		// a hair off an integer is still integral within tolerance
		ok, err := m.Feasible([]float64{1 + 1e-11}, 1e-9)
		assert.NoError(err)
		assert.True(ok)
	})

	t.Run("senses", func(t *testing.T) {
		assert := require.New(t)
		m := mip.NewModel()
		x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 10})
		m.AddLinear("roof", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.LessEq, 4)
		m.AddLinear("floor", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.GreaterEq, 2)
		m.AddLinear("pin", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.Equal, 3)

		ok, err := m.Feasible([]float64{3}, 1e-9)
		assert.NoError(err)
		assert.True(ok)

		vs, err := m.Violations([]float64{5}, 1e-9)
		assert.NoError(err)
		assert.Len(vs, 2)
		assert.Equal("roof", vs[0].Subject)
		assert.InDelta(1, vs[0].Amount, 1e-12)
		assert.Equal("pin", vs[1].Subject)
		assert.InDelta(2, vs[1].Amount, 1e-12)

		vs, err = m.Violations([]float64{1}, 1e-9)
		assert.NoError(err)
		assert.Len(vs, 2)
		assert.Equal("floor", vs[0].Subject)
		assert.Equal("pin", vs[1].Subject)

		// just over the roof but inside the tolerance
		ok, err = m.Feasible([]float64{4 + 1e-12}, 1e-9)
		assert.NoError(err)
		assert.True(ok)
	})

	t.Run("tombstones", func(t *testing.T) {
		assert := require.New(t)
		m := mip.NewModel()
		x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 1})
		gone := m.NewContinuous("gone", mip.Interval{Lower: 0, Upper: 1})
		roof := m.AddLinear("roof", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.LessEq, 0.5)
		assert.NoError(m.RemoveConstraint(roof))
		assert.NoError(m.RemoveVariable(gone))

		// dead rows and columns are not checked, but the point still spans
		// every allocated column
		ok, err := m.Feasible([]float64{1, 99}, 1e-9)
		assert.NoError(err)
		assert.True(ok)
	})
}

func TestValue(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 10})
	y := m.NewContinuous("y", mip.Interval{Lower: 0, Upper: 10})

	e := mip.LinearExpression{{Var: x, Coeff: 2}, {Var: y, Coeff: -1}}
	assert.Equal(5.0, m.Value(e, []float64{3, 1}))
	assert.Equal(0.0, m.Value(nil, []float64{3, 1}))
}

func TestCheckAll(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 2})
	m.AddLinear("roof", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.LessEq, 1)

	res, err := m.CheckAll(context.Background(), [][]float64{{0.5}, {1.5}, {1}}, 1e-9)
	assert.NoError(err)
	assert.Equal([]bool{true, false, true}, res)

	_, err = m.CheckAll(context.Background(), [][]float64{{0.5}, {1, 2}}, 1e-9)
	assert.ErrorIs(err, mip.ErrPointDimension)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.CheckAll(ctx, [][]float64{{0.5}}, 1e-9)
	assert.ErrorIs(err, context.Canceled)
}
