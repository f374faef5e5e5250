package relax

import (
	"fmt"

	"github.com/milpkit/milpkit/debug"
	"github.com/milpkit/milpkit/logger"
	"github.com/milpkit/milpkit/mip"
)

// Incremental builds a piecewise MILP relaxation of z = x*y over a
// partitioned box. Each of the n segments carries three weights delta_1,
// delta_2, delta_3 in [0,1]; n-1 binary selectors z_bin force the weights
// to fill segments in order, so at most one segment is partially active.
// Finer partitions tighten the relaxation; with a single segment the
// feasible region is exactly the McCormick envelope.
type Incremental struct {
	m    Model
	opts options
}

// NewIncremental returns an Incremental builder writing into m. The vertex
// geometry comes from the GridEnumerator unless WithEnumerator overrides it.
func NewIncremental(m Model, opts ...Option) *Incremental {
	inc := &Incremental{m: m, opts: options{enum: GridEnumerator{}}}
	for _, opt := range opts {
		opt(&inc.opts)
	}
	return inc
}

// Build adds the relaxation for z = x*y over the given breakpoint slices.
// Both partitions must be strictly increasing with endpoints equal to the
// variable bounds; the number of segments is the longer partition's length
// minus one. All validation happens before the first allocation: on a
// configuration error the host model is untouched. A panic out of the host
// model is recovered and returned as an error carrying the panic value and
// its call stack.
//
// The returned record groups variables under "delta_1", "delta_2",
// "delta_3" and "z_bin" (absent for a single segment) and constraints
// under "x_con", "y_con", "z_con", "first_delta", "below_z" and "above_z".
func (inc *Incremental) Build(x, y, z mip.Variable, xPartition, yPartition []float64) (info *FormulationInfo, err error) {
	// recover host model panics to return user friendlier messages
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("%v\n%s", r, debug.Stack())
		}
	}()

	xb, yb, err := productBounds(inc.m, x, y, z)
	if err != nil {
		return nil, err
	}

	if err := validatePartition("x", xPartition, xb); err != nil {
		return nil, err
	}
	if err := validatePartition("y", yPartition, yb); err != nil {
		return nil, err
	}

	n := max(len(xPartition), len(yPartition)) - 1

	path, err := inc.opts.enum.EnumerateVertices(xPartition, yPartition)
	if err != nil {
		return nil, err
	}
	if err := checkVertexPath(path, n); err != nil {
		return nil, err
	}

	// validation done; the model is only touched from here on
	info = NewFormulationInfo()
	pfx := inc.opts.prefix
	unit := mip.Interval{Lower: 0, Upper: 1}

	delta1 := make([]mip.Variable, n)
	delta2 := make([]mip.Variable, n)
	delta3 := make([]mip.Variable, n)
	for i := 0; i < n; i++ {
		delta1[i] = inc.m.NewContinuous(fmt.Sprintf("%sdelta_1_%d", pfx, i+1), unit)
		delta2[i] = inc.m.NewContinuous(fmt.Sprintf("%sdelta_2_%d", pfx, i+1), unit)
		delta3[i] = inc.m.NewContinuous(fmt.Sprintf("%sdelta_3_%d", pfx, i+1), unit)
	}
	info.AddVariables("delta_1", delta1...)
	info.AddVariables("delta_2", delta2...)
	info.AddVariables("delta_3", delta3...)

	var zbin []mip.Variable
	if n > 1 {
		zbin = make([]mip.Variable, n-1)
		for i := range zbin {
			zbin[i] = inc.m.NewBinary(fmt.Sprintf("%sz_bin_%d", pfx, i+1))
		}
		info.AddVariables("z_bin", zbin...)
	}

	// reconstruction: each axis equals the origin plus the weighted segment
	// steps, written as "a - sum(...) == origin_1.a"
	axes := []struct {
		name string
		v    mip.Variable
		comp func(Vertex) float64
	}{
		{"x_con", x, func(v Vertex) float64 { return v.X }},
		{"y_con", y, func(v Vertex) float64 { return v.Y }},
		{"z_con", z, func(v Vertex) float64 { return v.Z }},
	}
	for _, ax := range axes {
		e := make(mip.LinearExpression, 0, 3*n+1)
		e = append(e, mip.Term{Var: ax.v, Coeff: 1})
		for i := 0; i < n; i++ {
			e = append(e,
				mip.Term{Var: delta1[i], Coeff: ax.comp(path.Origin[i]) - ax.comp(path.NonOrigin[i])},
				mip.Term{Var: delta2[i], Coeff: ax.comp(path.Origin[i]) - ax.comp(path.NonOrigin[i+1])},
				mip.Term{Var: delta3[i], Coeff: ax.comp(path.Origin[i]) - ax.comp(path.Origin[i+1])},
			)
		}
		info.AddConstraints(ax.name, inc.m.AddLinear(pfx+ax.name, e, mip.Equal, ax.comp(path.Origin[0])))
	}

	// the first segment's weights share one unit budget
	info.AddConstraints("first_delta", inc.m.AddLinear(pfx+"first_delta", mip.LinearExpression{
		{Var: delta1[0], Coeff: 1}, {Var: delta2[0], Coeff: 1}, {Var: delta3[0], Coeff: 1},
	}, mip.LessEq, 1))

	// segment i may only open once z_bin[i-1] is up, and z_bin[i-1] may only
	// be up once segment i-1 is fully traversed (delta_3 at 1)
	belowZ := make([]mip.Constraint, 0, n-1)
	aboveZ := make([]mip.Constraint, 0, n-1)
	for i := 1; i < n; i++ {
		belowZ = append(belowZ, inc.m.AddLinear(fmt.Sprintf("%sbelow_z_%d", pfx, i+1), mip.LinearExpression{
			{Var: delta1[i], Coeff: 1}, {Var: delta2[i], Coeff: 1}, {Var: delta3[i], Coeff: 1},
			{Var: zbin[i-1], Coeff: -1},
		}, mip.LessEq, 0))
		aboveZ = append(aboveZ, inc.m.AddLinear(fmt.Sprintf("%sabove_z_%d", pfx, i+1), mip.LinearExpression{
			{Var: zbin[i-1], Coeff: 1}, {Var: delta3[i-1], Coeff: -1},
		}, mip.LessEq, 0))
	}
	if n > 1 {
		info.AddConstraints("below_z", belowZ...)
		info.AddConstraints("above_z", aboveZ...)
	}

	log := logger.Logger()
	log.Debug().
		Int("segments", n).
		Int("nbVariables", info.NumVariables()).
		Int("nbConstraints", info.NumConstraints()).
		Msg("built incremental relaxation")

	return info, nil
}
