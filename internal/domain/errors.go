package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperator is returned when a covenant operator has no utilization direction
	ErrUnsupportedOperator = errors.New("unsupported covenant operator")
	// ErrInvalidTransition is matched by every InvalidTransitionError
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrFieldNotFound is returned by strict scenario simulation for unknown adjustment fields
	ErrFieldNotFound = errors.New("financial field not found")
	// ErrUnsupportedAdjustment is returned for adjustment types other than absolute/percentage
	ErrUnsupportedAdjustment = errors.New("unsupported adjustment type")
	// ErrInvalidThresholds is returned when zone thresholds violate 0 < caution < danger < 1
	ErrInvalidThresholds = errors.New("invalid zone thresholds")
	// ErrInsufficientHistory is returned when fewer than two values are available for a trend
	ErrInsufficientHistory = errors.New("insufficient history for trend analysis")
	// ErrConditionNotFound is returned when a draw has no condition with the given id
	ErrConditionNotFound = errors.New("condition not found")
	// ErrConditionsOutstanding is returned when funding a draw with pending conditions
	ErrConditionsOutstanding = errors.New("conditions precedent outstanding")
	// ErrInvalidAmount is returned for non-positive or out-of-range monetary amounts
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrValidation is returned for malformed input
	ErrValidation = errors.New("validation failed")
)

// InvalidTransitionError describes a rejected state change
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.Entity, e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) match
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewInvalidTransition creates an InvalidTransitionError
func NewInvalidTransition(entity, from, to string) error {
	return &InvalidTransitionError{Entity: entity, From: from, To: to}
}

// ValidationError wraps ErrValidation with a message
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
