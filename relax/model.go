package relax

import (
	"github.com/milpkit/milpkit/mip"
)

// Model is the host model surface the builders write into. *mip.Model
// satisfies it; any model layer exposing bound lookup and registration of
// variables and linear constraints can be used instead.
type Model interface {
	// Bounds returns the current bounds of a registered variable.
	Bounds(v mip.Variable) (mip.Interval, error)

	// NewContinuous registers a continuous variable with the given bounds.
	NewContinuous(name string, b mip.Interval) mip.Variable

	// NewBinary registers a 0/1 variable.
	NewBinary(name string) mip.Variable

	// AddLinear registers the linear constraint "e sense rhs".
	AddLinear(name string, e mip.LinearExpression, sense mip.Sense, rhs float64) mip.Constraint
}

// Option configures a relaxation builder.
type Option func(*options)

type options struct {
	prefix string
	enum   Enumerator
}

// WithPrefix prepends prefix to the name of every model variable and
// constraint the builder creates. FormulationInfo group names are not
// affected. Useful when one model hosts several formulations.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnumerator replaces the default GridEnumerator. Only Incremental
// consults the enumerator.
func WithEnumerator(e Enumerator) Option {
	return func(o *options) {
		o.enum = e
	}
}
