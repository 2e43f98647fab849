package api

import (
	"errors"
	"net/http"

	"github.com/recallmed/recall-api/internal/service/queue"
	"github.com/recallmed/recall-api/internal/service/recovery"
	"github.com/recallmed/recall-api/internal/service/review"
	"github.com/recallmed/recall-api/internal/service/session"
	"github.com/recallmed/recall-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, review.ErrInvalidGrade),
		errors.Is(err, review.ErrInvalidContentType),
		errors.Is(err, queue.ErrInvalidLimit),
		errors.Is(err, recovery.ErrInvalidDays),
		errors.Is(err, recovery.ErrMissingTarget),
		errors.Is(err, recovery.ErrUnscopedFilter),
		errors.Is(err, session.ErrNoItems),
		errors.Is(err, session.ErrItemNotInSession),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, session.ErrSessionCompleted):
		return http.StatusConflict

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, review.ErrInvalidGrade):
		return "Invalid grade"

	case errors.Is(err, review.ErrInvalidContentType):
		return "Invalid content type"

	case errors.Is(err, queue.ErrInvalidLimit):
		return "Invalid queue limit"

	case errors.Is(err, recovery.ErrInvalidDays):
		return "Days to distribute must be at least 1"

	case errors.Is(err, recovery.ErrMissingTarget):
		return "Either days_to_distribute or new_date is required"

	case errors.Is(err, recovery.ErrUnscopedFilter):
		return "Bulk operations require an explicit scope"

	case errors.Is(err, session.ErrNoItems):
		return "Session requires at least one item"

	case errors.Is(err, session.ErrItemNotInSession):
		return "Item is not part of this session"

	case errors.Is(err, session.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, session.ErrSessionCompleted):
		return "Session is already completed"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}
