// Package lpformat writes models in the CPLEX LP text format, understood by
// most MILP solvers (CPLEX, Gurobi, SCIP, HiGHS, CBC).
//
// The writer emits the objective, a Subject To section, explicit Bounds for
// every continuous and integer variable, then Binaries and Generals sections
// for the discrete ones. Names are sanitized to the LP character set and
// de-duplicated, so the output loads even when model names carry characters
// the format forbids.
package lpformat

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/milpkit/milpkit/mip"
)

// lines longer than this are folded with a two space continuation indent
const wrapCol = 72

// Write renders m in CPLEX LP format. It fails when a constraint has no
// terms and the model has no column left to anchor the row on.
func Write(w io.Writer, m *mip.Model) error {
	bw := bufio.NewWriter(w)

	names := make(map[mip.Variable]string, m.NumVariables())
	used := make(map[string]struct{}, m.NumVariables()+m.NumConstraints())
	var first string
	var binaries, generals []string
	m.ForEachVariable(func(v mip.Variable, name string, _ mip.Interval, k mip.Kind) {
		s := sanitize(name, used)
		names[v] = s
		if first == "" {
			first = s
		}
		switch k {
		case mip.Binary:
			binaries = append(binaries, s)
		case mip.Integer:
			generals = append(generals, s)
		}
	})

	if name := m.Name(); name != "" {
		fmt.Fprintf(bw, "\\ %s\n", name)
	}

	obj, dir, ok := m.Objective()
	if !ok {
		dir = mip.Minimize
	}
	fmt.Fprintf(bw, "%s\n obj:", dir)
	writeExpr(bw, obj, names, len(" obj:"))
	bw.WriteByte('\n')

	fmt.Fprintf(bw, "Subject To\n")
	var rowErr error
	m.ForEachConstraint(func(_ mip.Constraint, name string, e mip.LinearExpression, sense mip.Sense, rhs float64) {
		if rowErr != nil {
			return
		}
		s := sanitize(name, used)
		fmt.Fprintf(bw, " %s:", s)
		if len(e) == 0 {
			// all terms cancelled; anchor the constant row on any column
			if first == "" {
				rowErr = fmt.Errorf("lpformat: constraint %q has no terms", name)
				return
			}
			fmt.Fprintf(bw, " 0 %s", first)
		} else {
			writeExpr(bw, e, names, len(s)+2)
		}
		fmt.Fprintf(bw, " %s %s\n", senseToken(sense), num(rhs))
	})
	if rowErr != nil {
		return rowErr
	}

	fmt.Fprintf(bw, "Bounds\n")
	m.ForEachVariable(func(v mip.Variable, _ string, b mip.Interval, k mip.Kind) {
		if k == mip.Binary {
			return
		}
		if math.IsInf(b.Lower, -1) && math.IsInf(b.Upper, 1) {
			fmt.Fprintf(bw, " %s free\n", names[v])
			return
		}
		fmt.Fprintf(bw, " %s <= %s <= %s\n", num(b.Lower), names[v], num(b.Upper))
	})

	if len(binaries) > 0 {
		fmt.Fprintf(bw, "Binaries\n %s\n", strings.Join(binaries, " "))
	}
	if len(generals) > 0 {
		fmt.Fprintf(bw, "Generals\n %s\n", strings.Join(generals, " "))
	}
	fmt.Fprintf(bw, "End\n")
	return bw.Flush()
}

func writeExpr(bw *bufio.Writer, e mip.LinearExpression, names map[mip.Variable]string, col int) {
	for i, t := range e {
		var frag string
		c := t.Coeff
		sign := " + "
		if c < 0 {
			sign = " - "
			c = -c
		}
		if i == 0 {
			sign = " "
			if t.Coeff < 0 {
				sign = " -"
			}
		}
		if c == 1 {
			frag = sign + names[t.Var]
		} else {
			frag = sign + num(c) + " " + names[t.Var]
		}
		if col+len(frag) > wrapCol && i > 0 {
			bw.WriteString("\n  ")
			col = 2
			frag = strings.TrimPrefix(frag, " ")
		}
		bw.WriteString(frag)
		col += len(frag)
	}
}

func senseToken(s mip.Sense) string {
	switch s {
	case mip.LessEq:
		return "<="
	case mip.GreaterEq:
		return ">="
	default:
		return "="
	}
}

func num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// sanitize maps name onto the LP identifier character set, forces a legal
// first character and resolves collisions with a numeric suffix.
func sanitize(name string, used map[string]struct{}) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	if s == "" || !legalFirst(s[0]) {
		s = "v_" + s
	}
	base := s
	for k := 2; ; k++ {
		if _, taken := used[s]; !taken {
			break
		}
		s = fmt.Sprintf("%s_%d", base, k)
	}
	used[s] = struct{}{}
	return s
}

func legalFirst(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
