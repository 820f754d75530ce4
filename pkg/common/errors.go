package common

import (
	"errors"
	"fmt"
)

var (
	// ErrIO covers files that are missing, unreadable, undecodable or unwritable.
	ErrIO = errors.New("io error")

	// ErrValue covers invalid parameters and inputs.
	ErrValue = errors.New("value error")

	// ErrDimensionMismatch is an ErrValue raised when planes that must be
	// combined elementwise differ in size.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrValue)
)
