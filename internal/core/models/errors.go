package models

import "errors"

var (
	ErrTooManyCheckpoints = errors.New("a track supports at most 32 checkpoints")
	ErrInvalidShape       = errors.New("entity shape is not a valid polygon")
	ErrUnknownCar         = errors.New("unknown car handle")
)
