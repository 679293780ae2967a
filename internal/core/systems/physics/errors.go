package physics

import "errors"

// Geometry precondition errors. These indicate bad content or bad spawn
// placement and are never fixed up silently.
var (
	ErrTooFewPoints    = errors.New("polygon needs at least 3 points")
	ErrTooManyPoints   = errors.New("polygon supports at most 8 points")
	ErrInvalidSize     = errors.New("polygon size must be positive on both axes")
	ErrInvalidRounding = errors.New("rounding percent must be within (0, 100)")
	ErrZeroVector      = errors.New("cannot normalize a zero length vector")
)
