package engine

import (
	"errors"

	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
)

// Engine errors.
var (
	// ErrInvalidInput is returned when an input cannot be clamped to a safe
	// value without misrepresenting the result, such as a negative salary.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData marks partial results. It is never returned for
	// missing fields; Analyze records it in warnings instead.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUnknownPeriod is the reference data error for an unsupported tax
	// year or filing status.
	ErrUnknownPeriod = taxtable.ErrUnknownPeriod
)
