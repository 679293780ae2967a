package level

import "errors"

var (
	ErrUnknownLevel = errors.New("unknown level")
	ErrMalformed    = errors.New("malformed level")
)
