package relax

import (
	"fmt"
	"math"

	"github.com/milpkit/milpkit/internal/utils"
	"github.com/milpkit/milpkit/mip"
)

// validatePartition checks one axis' breakpoint slice against the variable
// bounds: at least two finite, strictly increasing breakpoints whose
// endpoints equal the bounds exactly.
func validatePartition(axis string, partition []float64, b mip.Interval) error {
	if len(partition) < 2 {
		return fmt.Errorf("%w: %s partition needs at least two breakpoints, got %d", ErrConfiguration, axis, len(partition))
	}
	for _, p := range partition {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: %s partition contains non finite breakpoint %g", ErrConfiguration, axis, p)
		}
	}
	if !utils.IsStrictlyIncreasing(partition) {
		return fmt.Errorf("%w: %s partition is not strictly increasing", ErrConfiguration, axis)
	}
	if partition[0] != b.Lower || partition[len(partition)-1] != b.Upper {
		return fmt.Errorf("%w: %s partition spans [%g,%g] but the bounds are %s",
			ErrConfiguration, axis, partition[0], partition[len(partition)-1], b)
	}
	return nil
}
