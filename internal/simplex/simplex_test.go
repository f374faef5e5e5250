package simplex_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/milpkit/milpkit/internal/simplex"
	"github.com/milpkit/milpkit/mip"
)

const tol = 1e-7

func TestRange(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 3})
	y := m.NewContinuous("y", mip.Interval{Lower: 0, Upper: 4})
	z := m.NewContinuous("z", mip.AllReals())
	m.AddLinear("cap", mip.LinearExpression{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, mip.LessEq, 5)
	m.AddLinear("sum", mip.LinearExpression{{Var: z, Coeff: 1}, {Var: x, Coeff: -1}, {Var: y, Coeff: -1}}, mip.Equal, 0)

	lo, hi, err := simplex.Range(m, x)
	assert.NoError(err)
	assert.InDelta(0, lo, tol)
	assert.InDelta(3, hi, tol)

	// z is free, its range comes entirely from the coupling row
	lo, hi, err = simplex.Range(m, z)
	assert.NoError(err)
	assert.InDelta(0, lo, tol)
	assert.InDelta(5, hi, tol)
}

func TestRangeShiftedBounds(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: -2, Upper: 1})
	m.AddLinear("cap", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.LessEq, 0.5)

	lo, hi, err := simplex.Range(m, x)
	assert.NoError(err)
	assert.InDelta(-2, lo, tol)
	assert.InDelta(0.5, hi, tol)
}

func TestRangeUpperBoundedOnly(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	w := m.NewContinuous("w", mip.Interval{Lower: math.Inf(-1), Upper: 2})
	m.AddLinear("floor", mip.LinearExpression{{Var: w, Coeff: 1}}, mip.GreaterEq, -3)

	lo, hi, err := simplex.Range(m, w)
	assert.NoError(err)
	assert.InDelta(-3, lo, tol)
	assert.InDelta(2, hi, tol)
}

func TestRangeInfeasible(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 1})
	m.AddLinear("floor", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.GreaterEq, 2)

	_, _, err := simplex.Range(m, x)
	assert.ErrorIs(err, simplex.ErrInfeasible)
}

func TestMixedRange(t *testing.T) {
	assert := require.New(t)

	// x is tied to a binary and floored away from zero, so only b = 1
	// survives enumeration while the relaxation still reaches 0.5
	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 1})
	b := m.NewBinary("b")
	m.AddLinear("tie", mip.LinearExpression{{Var: x, Coeff: 1}, {Var: b, Coeff: -1}}, mip.Equal, 0)
	m.AddLinear("floor", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.GreaterEq, 0.5)

	lo, hi, err := simplex.Range(m, x)
	assert.NoError(err)
	assert.InDelta(0.5, lo, tol)
	assert.InDelta(1, hi, tol)

	lo, hi, err = simplex.MixedRange(m, x)
	assert.NoError(err)
	assert.InDelta(1, lo, tol)
	assert.InDelta(1, hi, tol)
}

func TestMixedRangeInfeasible(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 1})
	b := m.NewBinary("b")
	m.AddLinear("tie", mip.LinearExpression{{Var: x, Coeff: 1}, {Var: b, Coeff: -1}}, mip.Equal, 0)
	m.AddLinear("floor", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.GreaterEq, 0.25)
	m.AddLinear("cap", mip.LinearExpression{{Var: x, Coeff: 1}}, mip.LessEq, 0.75)

	_, _, err := simplex.MixedRange(m, x)
	assert.ErrorIs(err, simplex.ErrInfeasible)
}

func TestMixedRangeEnumerationLimit(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 1})
	for i := 0; i < 17; i++ {
		m.NewBinary(fmt.Sprintf("b%d", i))
	}

	_, _, err := simplex.MixedRange(m, x)
	assert.ErrorContains(err, "enumeration limit")
}
