package mip

import (
	"math"
	"strconv"
	"strings"
)

//go:generate stringer -type=Kind -output=kind_string.go

// Kind is the domain of a model variable.
type Kind uint8

const (
	Continuous Kind = iota
	Binary
	Integer
)

// Variable is an opaque handle to a model column. The zero value points at
// the first column ever declared; handles are only meaningful for the model
// that issued them.
type Variable struct {
	index uint32
}

// Index returns the column index of v in its model.
func (v Variable) Index() int {
	return int(v.index)
}

// Interval is a closed interval of the real line. Either endpoint may be
// infinite.
type Interval struct {
	Lower float64
	Upper float64
}

// AllReals returns the unbounded interval.
func AllReals() Interval {
	return Interval{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// IsFinite reports whether both endpoints are finite numbers.
func (i Interval) IsFinite() bool {
	return !math.IsInf(i.Lower, 0) && !math.IsInf(i.Upper, 0) &&
		!math.IsNaN(i.Lower) && !math.IsNaN(i.Upper)
}

// Contains reports whether x lies in the closed interval.
func (i Interval) Contains(x float64) bool {
	return x >= i.Lower && x <= i.Upper
}

// Width returns Upper - Lower.
func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

func (i Interval) String() string {
	return "[" + strconv.FormatFloat(i.Lower, 'g', -1, 64) + "," + strconv.FormatFloat(i.Upper, 'g', -1, 64) + "]"
}

// wellFormed reports whether the interval is usable as variable bounds:
// no NaN endpoint and Lower <= Upper.
func (i Interval) wellFormed() bool {
	if math.IsNaN(i.Lower) || math.IsNaN(i.Upper) {
		return false
	}
	return i.Lower <= i.Upper
}

// Term is a coefficient attached to a variable.
type Term struct {
	Var   Variable
	Coeff float64
}

// A LinearExpression is a linear combination of Term
type LinearExpression []Term

// Clone returns a copy of the underlying slice
func (l LinearExpression) Clone() LinearExpression {
	res := make(LinearExpression, len(l))
	copy(res, l)
	return res
}

// Resolver maps variable handles back to names, for printing.
type Resolver interface {
	VariableName(v Variable) string
}

func (l LinearExpression) String(r Resolver) string {
	if len(l) == 0 {
		return "0"
	}
	var sbb strings.Builder
	for i, t := range l {
		c := t.Coeff
		switch {
		case i == 0 && c < 0:
			sbb.WriteString("-")
			c = -c
		case i > 0 && c < 0:
			sbb.WriteString(" - ")
			c = -c
		case i > 0:
			sbb.WriteString(" + ")
		}
		if c != 1 {
			sbb.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
			sbb.WriteString("*")
		}
		sbb.WriteString(r.VariableName(t.Var))
	}
	return sbb.String()
}
