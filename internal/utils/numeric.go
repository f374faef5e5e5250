package utils

import (
	"golang.org/x/exp/constraints"
)

// IsStrictlyIncreasing reports whether s[i] < s[i+1] for every i.
// Slices of length 0 or 1 are trivially increasing.
func IsStrictlyIncreasing[T constraints.Ordered](s []T) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] >= s[i] {
			return false
		}
	}
	return true
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
// The endpoints are set exactly, not computed, so callers can rely on
// res[0] == lo and res[n-1] == hi bit for bit.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		panic("utils: linspace needs at least two points")
	}
	res := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range res {
		res[i] = lo + float64(i)*step
	}
	res[0] = lo
	res[n-1] = hi
	return res
}
