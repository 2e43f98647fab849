package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
)

// BulkFilter scopes a bulk delete or bulk reset to an explicit set of
// items. At least one of ContentIDs, ContentTypes or All must be set;
// there is no implicit "affect everything" default.
type BulkFilter struct {
	// ContentIDs limits the operation to specific content IDs.
	ContentIDs []uuid.UUID

	// ContentTypes limits the operation to specific content types.
	ContentTypes []domain.ContentType

	// All explicitly selects every item for the user. It is only honored
	// when ContentIDs and ContentTypes are empty.
	All bool
}

// IsScoped reports whether the filter unambiguously selects a target set.
func (f BulkFilter) IsScoped() bool {
	return len(f.ContentIDs) > 0 || len(f.ContentTypes) > 0 || f.All
}

// DueDateUpdate re-stamps a single review item's due time. Used by the
// overdue recovery service to redistribute backlogs.
type DueDateUpdate struct {
	ContentType domain.ContentType
	ContentID   uuid.UUID
	DueAt       time.Time
}

// ReviewItemStore defines the interface for review item persistence.
// No business logic beyond filtering and ordering lives here.
type ReviewItemStore interface {
	// Get retrieves a review item by its (userID, contentType, contentID)
	// identity. Returns ErrReviewItemNotFound if it does not exist.
	// This method does NOT lock the row; use GetForUpdate inside a
	// transaction when you plan to modify it.
	Get(ctx context.Context, userID uuid.UUID, contentType domain.ContentType, contentID uuid.UUID) (*domain.ReviewItem, error)

	// GetForUpdate retrieves a review item with a row-level lock using
	// SELECT FOR UPDATE. It must be called within a transaction.
	// Returns ErrReviewItemNotFound if the item does not exist.
	GetForUpdate(ctx context.Context, userID uuid.UUID, contentType domain.ContentType, contentID uuid.UUID) (*domain.ReviewItem, error)

	// Upsert saves the item, overwriting any existing record with the same
	// identity. Exactly one record per identity ever exists.
	// Returns validation errors from the domain ReviewItem if data is invalid.
	Upsert(ctx context.Context, item *domain.ReviewItem) error

	// QueryDue returns items due as of the given time, ordered by DueAt
	// ascending (most overdue first). An item is due when DueAt <= asOf or
	// its state is NEW. A nil contentType matches every type. A limit of 0
	// means no limit.
	QueryDue(ctx context.Context, userID uuid.UUID, contentType *domain.ContentType, asOf time.Time, limit int) ([]*domain.ReviewItem, error)

	// QueryOverdue returns items whose DueAt fell strictly before the start
	// of the day containing asOf, ordered by DueAt ascending. An empty
	// contentTypes slice matches every type.
	QueryOverdue(ctx context.Context, userID uuid.UUID, contentTypes []domain.ContentType, asOf time.Time) ([]*domain.ReviewItem, error)

	// UpdateDueDates re-stamps the DueAt of each referenced item and
	// returns the number of rows affected.
	UpdateDueDates(ctx context.Context, userID uuid.UUID, updates []DueDateUpdate) (int64, error)

	// BulkDelete removes every item matched by the filter and returns the
	// number of rows deleted. An unscoped filter deletes nothing.
	BulkDelete(ctx context.Context, userID uuid.UUID, filter BulkFilter) (int64, error)

	// BulkReset resets every matched item to NEW with zero repetitions,
	// a 1-day interval and the given initial stability, preserving
	// LastReviewedAt history. Returns the number of rows affected.
	BulkReset(ctx context.Context, userID uuid.UUID, filter BulkFilter, initialStability float64) (int64, error)

	// WithTx returns a new ReviewItemStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ReviewItemStore
}
