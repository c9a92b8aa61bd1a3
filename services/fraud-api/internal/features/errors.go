package features

import (
	"errors"
	"fmt"
)

var (
	// ErrLogDomain is returned when ln(1+x) is requested for x <= -1.
	ErrLogDomain = errors.New("logarithm of a non-positive value")
	// ErrDivisionByZero is returned when a ratio denominator is exactly zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// DerivationError reports the feature whose computation failed and the input that caused it.
type DerivationError struct {
	Feature string
	Input   float64
	Err     error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("cannot derive %s from %v: %v", e.Feature, e.Input, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }
