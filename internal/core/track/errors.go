package track

import "errors"

var (
	ErrInvalidGrid     = errors.New("track grid must have positive dimensions")
	ErrInvalidCellSize = errors.New("track cell size must be positive")
	ErrCellOutOfRange  = errors.New("cell is outside the track grid")

	ErrMissingAsset = errors.New("scenery object has no asset")
	ErrObjectSize   = errors.New("object size must be positive")
	ErrObjectPlace  = errors.New("object position is not finite")
	ErrUnknownKind  = errors.New("unknown object kind")
)
