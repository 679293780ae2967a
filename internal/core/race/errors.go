package race

import "errors"

var (
	ErrNotLoaded   = errors.New("no level is loaded")
	ErrInvalidStep = errors.New("tick delta must be a finite, non-negative number of seconds")
	ErrNoTrack     = errors.New("level provides no track layer")

	ErrInvalidSpawn = errors.New("spawn has a non-finite angle, position, velocity or size")
)
