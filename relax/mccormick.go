package relax

import (
	"fmt"

	"github.com/milpkit/milpkit/debug"
	"github.com/milpkit/milpkit/logger"
	"github.com/milpkit/milpkit/mip"
)

// McCormick builds the four inequality convex envelope of z = x*y over the
// box given by the bounds of x and y. The envelope is the convex hull of
// the surface over the box; it adds no auxiliary variables.
type McCormick struct {
	m    Model
	opts options
}

// NewMcCormick returns a McCormick builder writing into m.
func NewMcCormick(m Model, opts ...Option) *McCormick {
	mc := &McCormick{m: m}
	for _, opt := range opts {
		opt(&mc.opts)
	}
	return mc
}

// Build adds the envelope for z = x*y and returns the record of the four
// constraints under the names "lb_1", "lb_2", "ub_1" and "ub_2". Both x and
// y must have finite bounds; on a configuration error the host model is
// untouched. A panic out of the host model is recovered and returned as an
// error carrying the panic value and its call stack.
func (mc *McCormick) Build(x, y, z mip.Variable) (info *FormulationInfo, err error) {
	// recover host model panics to return user friendlier messages
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("%v\n%s", r, debug.Stack())
		}
	}()

	xb, yb, err := productBounds(mc.m, x, y, z)
	if err != nil {
		return nil, err
	}

	info = NewFormulationInfo()
	pfx := mc.opts.prefix

	// z >= xlb*y + ylb*x - xlb*ylb
	info.AddConstraints("lb_1", mc.m.AddLinear(pfx+"lb_1", mip.LinearExpression{
		{Var: z, Coeff: 1}, {Var: y, Coeff: -xb.Lower}, {Var: x, Coeff: -yb.Lower},
	}, mip.GreaterEq, -xb.Lower*yb.Lower))

	// z >= xub*y + yub*x - xub*yub
	info.AddConstraints("lb_2", mc.m.AddLinear(pfx+"lb_2", mip.LinearExpression{
		{Var: z, Coeff: 1}, {Var: y, Coeff: -xb.Upper}, {Var: x, Coeff: -yb.Upper},
	}, mip.GreaterEq, -xb.Upper*yb.Upper))

	// z <= xlb*y + yub*x - xlb*yub
	info.AddConstraints("ub_1", mc.m.AddLinear(pfx+"ub_1", mip.LinearExpression{
		{Var: z, Coeff: 1}, {Var: y, Coeff: -xb.Lower}, {Var: x, Coeff: -yb.Upper},
	}, mip.LessEq, -xb.Lower*yb.Upper))

	// z <= xub*y + ylb*x - xub*ylb
	info.AddConstraints("ub_2", mc.m.AddLinear(pfx+"ub_2", mip.LinearExpression{
		{Var: z, Coeff: 1}, {Var: y, Coeff: -xb.Upper}, {Var: x, Coeff: -yb.Lower},
	}, mip.LessEq, -xb.Upper*yb.Lower))

	log := logger.Logger()
	log.Debug().
		Str("x", xb.String()).
		Str("y", yb.String()).
		Msg("built mccormick envelope")

	return info, nil
}

// productBounds fetches and checks the bounds of the product inputs. The z
// handle is resolved too so a stale handle fails before any allocation.
func productBounds(m Model, x, y, z mip.Variable) (xb, yb mip.Interval, err error) {
	xb, err = m.Bounds(x)
	if err != nil {
		return xb, yb, fmt.Errorf("%w: x: %v", ErrConfiguration, err)
	}
	yb, err = m.Bounds(y)
	if err != nil {
		return xb, yb, fmt.Errorf("%w: y: %v", ErrConfiguration, err)
	}
	if _, zErr := m.Bounds(z); zErr != nil {
		return xb, yb, fmt.Errorf("%w: z: %v", ErrConfiguration, zErr)
	}
	if !xb.IsFinite() {
		return xb, yb, fmt.Errorf("%w: x bounds %s are not finite", ErrConfiguration, xb)
	}
	if !yb.IsFinite() {
		return xb, yb, fmt.Errorf("%w: y bounds %s are not finite", ErrConfiguration, yb)
	}
	return xb, yb, nil
}
