// Package test provides helpers to test milpkit models and relaxations.
package test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/milpkit/milpkit/mip"
)

// DefaultTolerance is the absolute feasibility tolerance used by the helpers.
const DefaultTolerance = 1e-9

// Assert is a helper to test models
type Assert struct {
	t *testing.T
	*require.Assertions
}

// NewAssert returns an Assert helper embedding a testify/require object for convenience
func NewAssert(t *testing.T) *Assert {
	return &Assert{t: t, Assertions: require.New(t)}
}

// Run runs the test function fn as a subtest. The subtest is parametrized by
// the description strings descs.
func (a *Assert) Run(fn func(assert *Assert), descs ...string) {
	desc := strings.Join(descs, "/")
	a.t.Run(desc, func(t *testing.T) {
		assert := &Assert{t, require.New(t)}
		fn(assert)
	})
}

// Log logs using the test instance logger.
func (assert *Assert) Log(v ...interface{}) {
	assert.t.Log(v...)
}

// Feasible fails the test unless the point satisfies every live bound,
// integrality requirement and constraint of m within DefaultTolerance.
func (assert *Assert) Feasible(m *mip.Model, point []float64) {
	assert.t.Helper()
	vs, err := m.Violations(point, DefaultTolerance)
	assert.NoError(err)
	if len(vs) > 0 {
		assert.FailNowf("point is infeasible", "violations: %v", vs)
	}
}

// Infeasible fails the test unless the point violates the model. When name
// fragments are given, each must match at least one violated subject.
func (assert *Assert) Infeasible(m *mip.Model, point []float64, fragments ...string) {
	assert.t.Helper()
	vs, err := m.Violations(point, DefaultTolerance)
	assert.NoError(err)
	assert.NotEmpty(vs, "expected the point to violate the model")
	for _, want := range fragments {
		found := false
		for _, v := range vs {
			if strings.Contains(v.Subject, want) {
				found = true
				break
			}
		}
		assert.Truef(found, "expected a violation matching %q, got %v", want, vs)
	}
}
