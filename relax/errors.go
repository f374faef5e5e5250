package relax

import "errors"

var (
	// ErrConfiguration reports invalid caller input: non finite bounds,
	// malformed partitions or endpoints that disagree with the bounds.
	ErrConfiguration = errors.New("relax: invalid configuration")

	// ErrContract reports a violated plug in contract: an enumerator
	// returned sequences of the wrong length or vertices off the surface.
	ErrContract = errors.New("relax: contract violation")
)
