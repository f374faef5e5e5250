package mip

//go:generate stringer -type=Sense -output=sense_string.go
//go:generate stringer -type=Direction -output=direction_string.go

// Sense is the comparison direction of a linear constraint.
type Sense uint8

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// Direction is the optimization direction of an objective.
type Direction uint8

const (
	Minimize Direction = iota
	Maximize
)
