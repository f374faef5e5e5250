package mip

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats/scalar"
)

// Violation describes one unsatisfied bound, integrality requirement or
// constraint at a given point.
type Violation struct {
	// Subject is the variable or constraint name.
	Subject string
	// Detail is a human readable description of the failure.
	Detail string
	// Amount is the distance to feasibility, always positive.
	Amount float64
}

func (v Violation) String() string {
	return v.Subject + ": " + v.Detail
}

// Value evaluates the expression at a point indexed by column. The point
// must have at least NumCols entries.
func (m *Model) Value(e LinearExpression, point []float64) float64 {
	var sum float64
	for _, t := range e {
		sum += t.Coeff * point[t.Var.index]
	}
	return sum
}

func (m *Model) rowValue(i int, point []float64) float64 {
	var sum float64
	for k := m.rowStart[i]; k < m.rowStart[i+1]; k++ {
		sum += m.coeff[k] * point[m.colIdx[k]]
	}
	return sum
}

// Violations checks the point against every live bound, integrality
// requirement and constraint, within the absolute tolerance tol.
func (m *Model) Violations(point []float64, tol float64) ([]Violation, error) {
	if len(point) != m.NumCols() {
		return nil, fmt.Errorf("%w: got %d entries, model has %d columns", ErrPointDimension, len(point), m.NumCols())
	}

	var out []Violation
	for i := range m.colName {
		if m.deadCols.Test(uint(i)) {
			continue
		}
		v := point[i]
		if d := m.colLower[i] - v; d > tol {
			out = append(out, Violation{
				Subject: m.colName[i],
				Detail:  fmt.Sprintf("value %g below lower bound %g", v, m.colLower[i]),
				Amount:  d,
			})
		}
		if d := v - m.colUpper[i]; d > tol {
			out = append(out, Violation{
				Subject: m.colName[i],
				Detail:  fmt.Sprintf("value %g above upper bound %g", v, m.colUpper[i]),
				Amount:  d,
			})
		}
		if m.colKind[i] != Continuous && !scalar.EqualWithinAbs(v, math.Round(v), tol) {
			out = append(out, Violation{
				Subject: m.colName[i],
				Detail:  fmt.Sprintf("value %g not integral", v),
				Amount:  math.Abs(v - math.Round(v)),
			})
		}
	}

	for i := range m.rowName {
		if m.deadRows.Test(uint(i)) {
			continue
		}
		val := m.rowValue(i, point)
		rhs := m.rowRHS[i]
		switch m.rowSense[i] {
		case LessEq:
			if d := val - rhs; d > tol {
				out = append(out, Violation{
					Subject: m.rowName[i],
					Detail:  fmt.Sprintf("value %g violates <= %g", val, rhs),
					Amount:  d,
				})
			}
		case GreaterEq:
			if d := rhs - val; d > tol {
				out = append(out, Violation{
					Subject: m.rowName[i],
					Detail:  fmt.Sprintf("value %g violates >= %g", val, rhs),
					Amount:  d,
				})
			}
		case Equal:
			if !scalar.EqualWithinAbs(val, rhs, tol) {
				out = append(out, Violation{
					Subject: m.rowName[i],
					Detail:  fmt.Sprintf("value %g violates == %g", val, rhs),
					Amount:  math.Abs(val - rhs),
				})
			}
		}
	}
	return out, nil
}

// Feasible reports whether the point satisfies the whole model within tol.
func (m *Model) Feasible(point []float64, tol float64) (bool, error) {
	vs, err := m.Violations(point, tol)
	if err != nil {
		return false, err
	}
	return len(vs) == 0, nil
}

// CheckAll evaluates Feasible for every point concurrently. The model must
// not be mutated while CheckAll runs.
func (m *Model) CheckAll(ctx context.Context, points [][]float64, tol float64) ([]bool, error) {
	res := make([]bool, len(points))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := m.Feasible(points[i], tol)
			if err != nil {
				return err
			}
			res[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
