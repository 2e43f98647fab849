// Package session owns the lifecycle of bounded review sessions: creation
// from a queue slice, per-item completion tracking, and closing. No other
// component writes session records.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
)

// Common error types for the session manager.
var (
	// ErrSessionNotFound indicates that the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrItemNotInSession indicates an attempt to mark completion of an
	// item that is not part of the session's snapshot.
	ErrItemNotInSession = errors.New("item not part of session")

	// ErrSessionCompleted indicates a mutating call against a session that
	// has already reached its terminal COMPLETED status.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrNoItems indicates a session creation with an empty item list.
	ErrNoItems = errors.New("session requires at least one item")
)

// Manager provides the lifecycle operations for review sessions.
type Manager interface {
	// CreateOrResume returns the existing ACTIVE session for the
	// (userID, contentType) key when one exists, ignoring itemIDs; this is
	// a deliberate idempotency guarantee so a page reload never forks a
	// second concurrent session. Otherwise it creates a new ACTIVE session
	// snapshotting the given ordered item IDs. A concurrent creation race
	// is resolved by the store's uniqueness guarantee: both callers receive
	// the winning session.
	CreateOrResume(ctx context.Context, userID uuid.UUID, contentType domain.ContentType, itemIDs []uuid.UUID) (*domain.ReviewSession, error)

	// MarkCompleted records the completion of one item. It is idempotent:
	// marking an already completed item changes nothing. When the
	// completed set reaches the full snapshot the session transitions to
	// COMPLETED and CompletedAt is stamped. Marking an item that is not in
	// the snapshot returns ErrItemNotInSession without mutating anything.
	// A session owned by a different user is reported as not found.
	MarkCompleted(ctx context.Context, userID, sessionID, itemID uuid.UUID) (*domain.ReviewSession, error)

	// Close force-transitions an ACTIVE session to COMPLETED regardless of
	// completion ratio. Closing an already COMPLETED session is a no-op.
	// A session owned by a different user is reported as not found.
	Close(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ReviewSession, error)

	// CompleteItemForUser marks itemID completed in the user's ACTIVE
	// session for the content type, if such a session exists and contains
	// the item. It exists so grading can feed session progress without the
	// caller tracking session IDs; when no active session holds the item
	// it does nothing and returns nil.
	CompleteItemForUser(ctx context.Context, userID uuid.UUID, contentType domain.ContentType, itemID uuid.UUID) error
}

// ServiceError wraps errors from the session manager with additional
// context, allowing consumers to differentiate error sources with
// errors.As instead of string matching.
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
