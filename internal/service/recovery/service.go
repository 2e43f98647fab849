// Package recovery handles overdue backlogs: inspecting how far behind a
// user has fallen and repairing the schedule with bulk reschedules, deletes
// and progress resets.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/store"
)

// Common error types for the recovery service.
var (
	// ErrInvalidDays indicates a non-positive redistribution window.
	ErrInvalidDays = errors.New("days to distribute must be at least 1")

	// ErrMissingTarget indicates a reschedule request with neither a
	// distribution window nor a target date.
	ErrMissingTarget = errors.New("either days to distribute or a new date is required")

	// ErrUnscopedFilter indicates a bulk delete or reset without an
	// explicit scope. Destructive operations never default to everything.
	ErrUnscopedFilter = errors.New("bulk operation requires an explicit scope")
)

// OverdueStats summarizes a user's overdue backlog.
type OverdueStats struct {
	// TotalOverdue counts every overdue item across the inspected types.
	TotalOverdue int `json:"total_overdue"`

	// ByType breaks the count down per content type.
	ByType map[domain.ContentType]int `json:"by_type"`

	// VeryOverdueCount counts items overdue by more than the configured
	// threshold of days.
	VeryOverdueCount int `json:"very_overdue_count"`

	// OldestOverdueDays is how many days overdue the oldest item is, 0
	// when nothing is overdue.
	OldestOverdueDays int `json:"oldest_overdue_days"`
}

// RescheduleRequest scopes a bulk reschedule of overdue items. At least one
// of DaysToDistribute or NewDate must be set: a distribution window spreads
// items round-robin across consecutive days starting at NewDate (today when
// unset), while NewDate alone moves everything to that single day.
type RescheduleRequest struct {
	ContentTypes     []domain.ContentType
	DaysToDistribute *int
	NewDate          *time.Time
}

// RescheduleResult reports what a reschedule touched.
type RescheduleResult struct {
	Rescheduled int64     `json:"rescheduled"`
	FirstDueAt  time.Time `json:"first_due_at"`
	LastDueAt   time.Time `json:"last_due_at"`
}

// Service provides overdue inspection and bulk schedule repair.
type Service interface {
	// GetOverdueStats computes the user's overdue backlog summary,
	// evaluating dueness at asOf; a zero asOf means now. An empty
	// contentTypes slice inspects every type.
	GetOverdueStats(ctx context.Context, userID uuid.UUID, contentTypes []domain.ContentType, asOf time.Time) (*OverdueStats, error)

	// Reschedule redistributes the user's overdue items. With
	// DaysToDistribute set, items are spread evenly across that many
	// consecutive days, most-overdue first, starting at NewDate or today.
	// With only NewDate set, every overdue item moves to that date. Items
	// that are not overdue are never touched.
	Reschedule(ctx context.Context, userID uuid.UUID, request RescheduleRequest) (*RescheduleResult, error)

	// BulkDelete removes the review items matched by the filter. The
	// filter must be explicitly scoped; an unscoped filter is rejected
	// rather than interpreted as "everything".
	BulkDelete(ctx context.Context, userID uuid.UUID, filter store.BulkFilter) (int64, error)

	// BulkResetProgress returns matched items to the NEW state with fresh
	// scheduling parameters while preserving their review history
	// timestamps. The filter must be explicitly scoped.
	BulkResetProgress(ctx context.Context, userID uuid.UUID, filter store.BulkFilter) (int64, error)
}

// ServiceError wraps errors from the recovery service with additional
// context.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
