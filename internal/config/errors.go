package config

import "errors"

var (
	ErrReadConfig        = errors.New("cannot read preferences file")
	ErrDecodeConfig      = errors.New("cannot decode preferences")
	ErrInvalidPreference = errors.New("invalid preference")
	ErrInvalidTuning     = errors.New("invalid tuning")
)
