package ik

import "errors"

var (
	// ErrTolerance indicates a negative or NaN convergence tolerance.
	ErrTolerance = errors.New("ik: tolerance must be non-negative")

	// ErrOptions indicates solver options that cannot drive an iteration.
	ErrOptions = errors.New("ik: invalid solver options")
)
