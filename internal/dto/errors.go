package dto

import "fmt"

// ValidationError marks malformed input: candles that are not an array, bars
// missing required OHLC fields, non-positive indicator periods. It is fatal to
// the call and propagates to the caller unmodified.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ComputationError marks parameters that would produce nonsensical prices,
// e.g. a negative spread. Raised eagerly before any simulation runs.
type ComputationError struct {
	Message string
}

func (e *ComputationError) Error() string {
	return e.Message
}

func NewComputationError(format string, args ...interface{}) *ComputationError {
	return &ComputationError{Message: fmt.Sprintf(format, args...)}
}
