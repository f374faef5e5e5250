// Package milpkit provides building blocks for linear relaxations of
// bilinear products z = x*y inside mixed-integer programs.
//
// milpkit supports the following relaxation methods:
//   - McCormick (the four-inequality convex envelope over a box)
//   - Incremental (a piecewise MILP formulation over a partitioned box)
//
// The relaxation builders live in the relax package and write into any
// model satisfying relax.Model; the mip package provides a ready host
// model with feasibility checking, serialization and LP export.
package milpkit

import (
	"github.com/blang/semver/v4"
)

var Version = semver.MustParse("0.2.1")

// Methods returns the relaxation methods supported by milpkit.
func Methods() []string {
	return []string{
		"mccormick",
		"incremental",
	}
}
