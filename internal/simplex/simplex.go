// Package simplex measures variable ranges over small models by solving
// linear programs with gonum's simplex. It exists for tests and examples;
// matrices are dense and binary variables are enumerated exhaustively.
package simplex

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/milpkit/milpkit/mip"
)

// ErrInfeasible is returned when no point satisfies the model.
var ErrInfeasible = errors.New("simplex: model is infeasible")

// enumLimit caps how many binary variables MixedRange will enumerate.
const enumLimit = 16

type term struct {
	col  int
	coef float64
}

// affine is a model quantity rewritten over the standard form columns.
type affine struct {
	shift float64
	terms []term
}

// standard holds min c^T v subject to A v = b, v >= 0.
type standard struct {
	a     *mat.Dense
	b     []float64
	nCols int
	exprs map[int]affine
}

// build converts the live rows and bounds of m to standard form. Bounded
// columns are shifted to the nonnegative orthant, free columns split in
// two, inequalities gain a slack column. Columns listed in fixed are
// substituted by their value.
func build(m *mip.Model, fixed map[int]float64) (*standard, error) {
	s := &standard{exprs: make(map[int]affine)}

	type widthRow struct {
		col   int
		width float64
	}
	var widths []widthRow

	m.ForEachVariable(func(v mip.Variable, _ string, b mip.Interval, _ mip.Kind) {
		i := v.Index()
		if val, ok := fixed[i]; ok {
			s.exprs[i] = affine{shift: val}
			return
		}
		switch {
		case b.Lower == b.Upper:
			s.exprs[i] = affine{shift: b.Lower}
		case !math.IsInf(b.Lower, -1):
			s.exprs[i] = affine{shift: b.Lower, terms: []term{{s.nCols, 1}}}
			if !math.IsInf(b.Upper, 1) {
				widths = append(widths, widthRow{s.nCols, b.Upper - b.Lower})
			}
			s.nCols++
		case !math.IsInf(b.Upper, 1):
			s.exprs[i] = affine{shift: b.Upper, terms: []term{{s.nCols, -1}}}
			s.nCols++
		default:
			s.exprs[i] = affine{terms: []term{{s.nCols, 1}, {s.nCols + 1, -1}}}
			s.nCols += 2
		}
	})

	type row struct {
		coefs map[int]float64
		rhs   float64
		slack float64
	}
	var rows []row
	m.ForEachConstraint(func(_ mip.Constraint, _ string, e mip.LinearExpression, sense mip.Sense, rhs float64) {
		r := row{coefs: make(map[int]float64), rhs: rhs}
		for _, t := range e {
			ae := s.exprs[t.Var.Index()]
			r.rhs -= t.Coeff * ae.shift
			for _, at := range ae.terms {
				r.coefs[at.col] += t.Coeff * at.coef
			}
		}
		switch sense {
		case mip.LessEq:
			r.slack = 1
		case mip.GreaterEq:
			r.slack = -1
		}
		rows = append(rows, r)
	})
	for _, w := range widths {
		rows = append(rows, row{coefs: map[int]float64{w.col: 1}, rhs: w.width, slack: 1})
	}

	if len(rows) == 0 || s.nCols == 0 {
		return nil, fmt.Errorf("simplex: model reduces to %d rows over %d columns", len(rows), s.nCols)
	}

	nSlack := 0
	for _, r := range rows {
		if r.slack != 0 {
			nSlack++
		}
	}
	total := s.nCols + nSlack
	s.a = mat.NewDense(len(rows), total, nil)
	s.b = make([]float64, len(rows))
	slackAt := s.nCols
	for i, r := range rows {
		for col, coef := range r.coefs {
			s.a.Set(i, col, coef)
		}
		if r.slack != 0 {
			s.a.Set(i, slackAt, r.slack)
			slackAt++
		}
		s.b[i] = r.rhs
	}
	s.nCols = total
	return s, nil
}

// minimize returns the least value of the expression over s.
func (s *standard) minimize(obj affine) (float64, error) {
	c := make([]float64, s.nCols)
	for _, t := range obj.terms {
		c[t.col] = t.coef
	}
	opt, _, err := lp.Simplex(c, s.a, s.b, 0, nil)
	if err != nil {
		return 0, err
	}
	return obj.shift + opt, nil
}

func neg(a affine) affine {
	out := affine{shift: -a.shift, terms: make([]term, len(a.terms))}
	for i, t := range a.terms {
		out.terms[i] = term{t.col, -t.coef}
	}
	return out
}

func (s *standard) rangeOf(obj affine) (lo, hi float64, err error) {
	if lo, err = s.minimize(obj); err != nil {
		return 0, 0, err
	}
	if hi, err = s.minimize(neg(obj)); err != nil {
		return 0, 0, err
	}
	return lo, -hi, nil
}

// Range returns the least and greatest value v attains over the linear
// relaxation of m, integrality ignored.
func Range(m *mip.Model, v mip.Variable) (lo, hi float64, err error) {
	if _, err := m.Bounds(v); err != nil {
		return 0, 0, err
	}
	s, err := build(m, nil)
	if err != nil {
		return 0, 0, err
	}
	lo, hi, err = s.rangeOf(s.exprs[v.Index()])
	if errors.Is(err, lp.ErrInfeasible) {
		return 0, 0, ErrInfeasible
	}
	return lo, hi, err
}

// MixedRange returns the range of v with every binary variable held
// integral, enumerating all their assignments and relaxing any general
// integer variable. Assignments with an infeasible programme are skipped.
func MixedRange(m *mip.Model, v mip.Variable) (lo, hi float64, err error) {
	if _, err := m.Bounds(v); err != nil {
		return 0, 0, err
	}

	type binaryCol struct {
		col int
		b   mip.Interval
	}
	var bins []binaryCol
	m.ForEachVariable(func(bv mip.Variable, _ string, b mip.Interval, k mip.Kind) {
		if k == mip.Binary {
			bins = append(bins, binaryCol{bv.Index(), b})
		}
	})
	if len(bins) > enumLimit {
		return 0, 0, fmt.Errorf("simplex: %d binary variables exceed the enumeration limit of %d", len(bins), enumLimit)
	}

	lo, hi = math.Inf(1), math.Inf(-1)
	feasible := false
	for mask := 0; mask < 1<<len(bins); mask++ {
		fixed := make(map[int]float64, len(bins))
		ok := true
		for i, bin := range bins {
			val := float64((mask >> i) & 1)
			if !bin.b.Contains(val) {
				ok = false
				break
			}
			fixed[bin.col] = val
		}
		if !ok {
			continue
		}

		s, err := build(m, fixed)
		if err != nil {
			return 0, 0, err
		}
		l, h, err := s.rangeOf(s.exprs[v.Index()])
		if errors.Is(err, lp.ErrInfeasible) {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		feasible = true
		lo = math.Min(lo, l)
		hi = math.Max(hi, h)
	}
	if !feasible {
		return 0, 0, ErrInfeasible
	}
	return lo, hi, nil
}
