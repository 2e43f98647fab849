package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a review session.
// The only transition is ACTIVE -> COMPLETED; a completed session is a
// historical record and is never reopened.
type SessionStatus string

// Possible session statuses.
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// String returns the string representation of the session status.
func (s SessionStatus) String() string {
	return string(s)
}

// IsValid reports whether s is one of the supported session statuses.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusActive, SessionStatusCompleted:
		return true
	default:
		return false
	}
}

// Common validation errors for ReviewSession.
var (
	ErrEmptySessionUserID = errors.New("review session user ID cannot be empty")
	ErrEmptySessionItems  = errors.New("review session must snapshot at least one item")
)

// ReviewSession is a bounded unit of study work: a snapshot of item IDs
// taken from the due queue, consumed one graded item at a time. Sessions
// are scoped to a single content type; merging across types happens at the
// queue level.
type ReviewSession struct {
	UserID           uuid.UUID     `json:"user_id"`
	ID               uuid.UUID     `json:"id"`
	ContentType      ContentType   `json:"content_type"`
	ItemIDs          []uuid.UUID   `json:"item_ids"`
	CompletedItemIDs []uuid.UUID   `json:"completed_item_ids"`
	Status           SessionStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewReviewSession creates a new ACTIVE session snapshotting the given
// ordered item IDs. Duplicate IDs collapse to their first occurrence, since
// completion is tracked as a set and a duplicated entry could never be
// checked off twice.
func NewReviewSession(userID uuid.UUID, contentType ContentType, itemIDs []uuid.UUID) (*ReviewSession, error) {
	snapshot := make([]uuid.UUID, 0, len(itemIDs))
	seen := make(map[uuid.UUID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		snapshot = append(snapshot, id)
	}

	now := time.Now().UTC()
	session := &ReviewSession{
		ID:               uuid.New(),
		UserID:           userID,
		ContentType:      contentType,
		ItemIDs:          snapshot,
		CompletedItemIDs: []uuid.UUID{},
		Status:           SessionStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks the ReviewSession invariants.
func (s *ReviewSession) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptySessionUserID
	}

	if !s.ContentType.IsValid() {
		return ErrInvalidContentType
	}

	if !s.Status.IsValid() {
		return ErrInvalidSessionStatus
	}

	if len(s.ItemIDs) == 0 {
		return ErrEmptySessionItems
	}

	return nil
}

// ContainsItem reports whether itemID is part of the session's snapshot.
func (s *ReviewSession) ContainsItem(itemID uuid.UUID) bool {
	for _, id := range s.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// IsItemCompleted reports whether itemID has already been marked completed.
func (s *ReviewSession) IsItemCompleted(itemID uuid.UUID) bool {
	for _, id := range s.CompletedItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// AllItemsCompleted reports whether every snapshotted item has been marked
// completed. Comparison is set-wise; completion order does not matter.
func (s *ReviewSession) AllItemsCompleted() bool {
	if len(s.CompletedItemIDs) < len(s.ItemIDs) {
		return false
	}
	for _, id := range s.ItemIDs {
		if !s.IsItemCompleted(id) {
			return false
		}
	}
	return true
}
