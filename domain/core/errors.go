package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Lookup errors
	ErrMissingField = errors.New("field not found")

	// Input shape errors
	ErrLengthMismatch   = errors.New("label and score sequences differ in length")
	ErrDegenerateLabels = errors.New("labels contain a single class")
	ErrInvalidLabel     = errors.New("label is not a binary class")
	ErrInvalidScore     = errors.New("prediction score is not a number")
	ErrIndexRange       = errors.New("category index out of range")
	ErrEmptyTable       = errors.New("record table is empty")

	// Ingestion errors
	ErrSchema = errors.New("record does not match canonical schema")

	// Model errors
	ErrInferenceOnly = errors.New("model supports inference only")
	ErrNotFitted     = errors.New("model has not been fitted")
)

// Error constructors with context
func NewMissingFieldError(field string) error {
	return fmt.Errorf("%w: %q", ErrMissingField, field)
}

func NewLengthMismatchError(labels, scores int) error {
	return fmt.Errorf("%w: %d labels vs %d scores", ErrLengthMismatch, labels, scores)
}

func NewDegenerateLabelError(class int) error {
	return fmt.Errorf("%w: every label is %d, ROC-AUC is undefined", ErrDegenerateLabels, class)
}

func NewInvalidLabelError(index, label int) error {
	return fmt.Errorf("%w: label %d at index %d", ErrInvalidLabel, label, index)
}

func NewInvalidScoreError(index int) error {
	return fmt.Errorf("%w: score at index %d", ErrInvalidScore, index)
}

func NewIndexRangeError(start, end, count int) error {
	return fmt.Errorf("%w: range [%d, %d) over %d categories", ErrIndexRange, start, end, count)
}

func NewSchemaError(source string, row int, reason string) error {
	return fmt.Errorf("%w: %s row %d: %s", ErrSchema, source, row, reason)
}

// Error checking helpers
func IsMissingFieldError(err error) bool {
	return errors.Is(err, ErrMissingField)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrDegenerateLabels) ||
		errors.Is(err, ErrInvalidLabel) ||
		errors.Is(err, ErrInvalidScore) ||
		errors.Is(err, ErrIndexRange)
}
