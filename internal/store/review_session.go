package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
)

// ReviewSessionStore defines the interface for review session persistence.
type ReviewSessionStore interface {
	// GetByID retrieves a session by its ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, sessionID uuid.UUID) (*domain.ReviewSession, error)

	// FindActive retrieves the ACTIVE session for a (userID, contentType)
	// key. Returns ErrSessionNotFound if none exists. The backing store
	// guarantees at most one such row via a partial unique index.
	FindActive(ctx context.Context, userID uuid.UUID, contentType domain.ContentType) (*domain.ReviewSession, error)

	// Create saves a new session. Returns ErrActiveSessionExists when an
	// ACTIVE session already exists for the same (userID, contentType) key;
	// callers resolve the race by fetching the winning session.
	Create(ctx context.Context, session *domain.ReviewSession) error

	// Update persists the session's completed items, status and timestamps.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.ReviewSession) error

	// WithTx returns a new ReviewSessionStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) ReviewSessionStore
}
