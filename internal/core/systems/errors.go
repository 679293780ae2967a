package systems

import "errors"

var (
	// ErrCoincidentBodies means two bodies share a centre, so there is no
	// direction to separate them in. It points at bad spawn placement and
	// aborts the tick.
	ErrCoincidentBodies = errors.New("bodies share a centre and cannot be separated")
	ErrDuplicateSystem  = errors.New("system already registered")
	ErrNilWorld         = errors.New("world is nil")
)
