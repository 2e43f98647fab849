// Package queue assembles the unified review queue: per-type due items
// merged into one ordered list the client can present directly.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
)

// Common error types for the queue builder.
var (
	// ErrInvalidLimit indicates a negative per-type or total limit.
	ErrInvalidLimit = errors.New("limit cannot be negative")
)

// Entry is one position in the assembled queue.
type Entry struct {
	ContentType domain.ContentType `json:"content_type"`
	ContentID   uuid.UUID          `json:"content_id"`
	State       domain.ItemState   `json:"state"`
	DueAt       time.Time          `json:"due_at"`
	IsOverdue   bool               `json:"is_overdue"`
}

// Request scopes one queue build.
type Request struct {
	// TypeLimits caps how many items each content type contributes. A type
	// absent from the map falls back to the builder's default; an explicit
	// zero excludes the type.
	TypeLimits map[domain.ContentType]int

	// TotalLimit truncates the merged queue after ordering. Zero means no
	// total cap.
	TotalLimit int

	// AsOf is the reference time for dueness; the zero value means now.
	AsOf time.Time
}

// Builder assembles review queues.
type Builder interface {
	// BuildQueue gathers due items per content type, merges them, and
	// orders the result: overdue items first, then by due time ascending,
	// then by content type priority, with content ID as the final
	// tie-break so repeated calls with unchanged data return the same
	// order. Building the queue never mutates any item.
	BuildQueue(ctx context.Context, userID uuid.UUID, request Request) ([]Entry, error)
}

// ServiceError wraps errors from the queue builder with additional context.
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
