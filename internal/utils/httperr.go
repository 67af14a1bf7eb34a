package utils

import (
	"errors"
	"net/http"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// StatusForError maps domain errors onto HTTP status codes.
// Anything unrecognised is a 500.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConditionsOutstanding):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConditionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnsupportedOperator),
		errors.Is(err, domain.ErrUnsupportedAdjustment),
		errors.Is(err, domain.ErrFieldNotFound),
		errors.Is(err, domain.ErrInvalidThresholds),
		errors.Is(err, domain.ErrInsufficientHistory):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
