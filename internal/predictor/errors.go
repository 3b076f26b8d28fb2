package predictor

import "fmt"

// ParseError reports a submitted numeric field that is not a number.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string { return fmt.Sprintf("Invalid input for %s", e.Field) }

// PredictionError wraps any failure raised by the classifier or regressor.
// Its message is the underlying failure text, unchanged.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string { return e.Err.Error() }

func (e *PredictionError) Unwrap() error { return e.Err }
