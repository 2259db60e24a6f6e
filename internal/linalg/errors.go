package linalg

import "errors"

var (
	// ErrSingular indicates the regularized matrix could not be inverted.
	ErrSingular = errors.New("linalg: regularized matrix is singular")

	// ErrNegativeDamping indicates a damping factor below zero or NaN.
	ErrNegativeDamping = errors.New("linalg: damping must be non-negative")
)
