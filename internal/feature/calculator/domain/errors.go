// Package domain defines domain-level errors for the calculator feature.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidExpression is returned for malformed input or a failed evaluation.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrDivisionByZero is returned when the expression divides by zero.
	// It also matches ErrInvalidExpression.
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrInvalidExpression)
)
