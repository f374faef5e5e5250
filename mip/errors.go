package mip

import "errors"

var (
	// ErrUnknownVariable is returned when a handle does not refer to a live
	// column of the model.
	ErrUnknownVariable = errors.New("mip: unknown or removed variable")

	// ErrUnknownConstraint is returned when a handle does not refer to a
	// live row of the model.
	ErrUnknownConstraint = errors.New("mip: unknown or removed constraint")

	// ErrVariableInUse is returned by RemoveVariable while a live constraint
	// or the objective still references the variable.
	ErrVariableInUse = errors.New("mip: variable still referenced")

	// ErrBadBounds is returned when an interval has a NaN endpoint or
	// Lower > Upper.
	ErrBadBounds = errors.New("mip: malformed bounds")

	// ErrPointDimension is returned by the evaluation helpers when a point
	// does not have one entry per allocated column.
	ErrPointDimension = errors.New("mip: point dimension mismatch")
)
