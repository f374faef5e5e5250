package mip_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/milpkit/milpkit/mip"
)

func TestInterval(t *testing.T) {
	assert := require.New(t)

	i := mip.Interval{Lower: -1, Upper: 2}
	assert.True(i.IsFinite())
	assert.True(i.Contains(-1))
	assert.True(i.Contains(2))
	assert.False(i.Contains(2.1))
	assert.Equal(3.0, i.Width())
	assert.Equal("[-1,2]", i.String())

	all := mip.AllReals()
	assert.False(all.IsFinite())
	assert.True(all.Contains(1e300))
	assert.True(math.IsInf(all.Width(), 1))
	assert.Equal("[-Inf,+Inf]", all.String())

	assert.False(mip.Interval{Lower: math.NaN(), Upper: 1}.IsFinite())
}

func TestLinearExpressionString(t *testing.T) {
	assert := require.New(t)

	m := mip.NewModel()
	x := m.NewContinuous("x", mip.Interval{Lower: 0, Upper: 1})
	y := m.NewContinuous("y", mip.Interval{Lower: 0, Upper: 1})
	z := m.NewContinuous("z", mip.AllReals())

	e := mip.LinearExpression{{Var: z, Coeff: 1}, {Var: x, Coeff: 2}, {Var: y, Coeff: -1}}
	assert.Equal("z + 2*x - y", e.String(m))
	assert.Equal("0", mip.LinearExpression{}.String(m))
	assert.Equal("-1.5*x", mip.LinearExpression{{Var: x, Coeff: -1.5}}.String(m))

	clone := e.Clone()
	clone[0].Coeff = 9
	assert.Equal(1.0, e[0].Coeff)
}

func TestEnumStrings(t *testing.T) {
	assert := require.New(t)

	assert.Equal("Continuous", mip.Continuous.String())
	assert.Equal("Binary", mip.Binary.String())
	assert.Equal("Integer", mip.Integer.String())
	assert.Equal("Kind(7)", mip.Kind(7).String())

	assert.Equal("LessEq", mip.LessEq.String())
	assert.Equal("GreaterEq", mip.GreaterEq.String())
	assert.Equal("Equal", mip.Equal.String())

	assert.Equal("Minimize", mip.Minimize.String())
	assert.Equal("Maximize", mip.Maximize.String())
}
