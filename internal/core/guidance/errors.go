package guidance

import "errors"

var (
	ErrEmptyMask   = errors.New("track mask has no cells")
	ErrFieldBounds = errors.New("field pixels do not match dimensions")
)
