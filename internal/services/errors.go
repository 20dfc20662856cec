package services

import "errors"

var (
	// ErrNoInputs is returned when a batch or view has nothing to work on.
	ErrNoInputs = errors.New("no inputs")
)
