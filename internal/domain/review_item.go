package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ItemState represents the lifecycle stage of a review item.
type ItemState string

// Possible item states.
const (
	ItemStateNew        ItemState = "new"
	ItemStateLearning   ItemState = "learning"
	ItemStateReview     ItemState = "review"
	ItemStateRelearning ItemState = "relearning"
)

// String returns the string representation of the item state.
func (s ItemState) String() string {
	return string(s)
}

// IsValid reports whether s is one of the supported item states.
func (s ItemState) IsValid() bool {
	switch s {
	case ItemStateNew, ItemStateLearning, ItemStateReview, ItemStateRelearning:
		return true
	default:
		return false
	}
}

// MinStability is the hard floor for the stability (ease) factor.
// The SM-2 family never lets stability drop below this value.
const MinStability = 1.3

// InitialStability is the stability assigned to an item on first exposure.
const InitialStability = 2.5

// Common validation errors for ReviewItem.
var (
	ErrEmptyItemUserID    = errors.New("review item user ID cannot be empty")
	ErrEmptyItemContentID = errors.New("review item content ID cannot be empty")
	ErrInvalidStability   = errors.New("stability cannot be below the minimum")
	ErrInvalidInterval    = errors.New("interval must be at least 1 day once scheduled")
	ErrInvalidRepetitions = errors.New("repetitions cannot be negative")
)

// ReviewItem is one scheduling record per learning unit a user is tracking.
// Exactly one item exists per (UserID, ContentType, ContentID); upserts
// overwrite, never duplicate.
type ReviewItem struct {
	UserID         uuid.UUID   `json:"user_id"`
	ContentType    ContentType `json:"content_type"`
	ContentID      uuid.UUID   `json:"content_id"`
	State          ItemState   `json:"state"`
	DueAt          time.Time   `json:"due_at"`
	IntervalDays   int         `json:"interval_days"`
	Stability      float64     `json:"stability"`
	Repetitions    int         `json:"repetitions"`
	LastReviewedAt *time.Time  `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewReviewItem creates the scheduling record for a user's first exposure to
// a piece of content. New items are due immediately.
func NewReviewItem(userID uuid.UUID, contentType ContentType, contentID uuid.UUID) (*ReviewItem, error) {
	now := time.Now().UTC()
	item := &ReviewItem{
		UserID:       userID,
		ContentType:  contentType,
		ContentID:    contentID,
		State:        ItemStateNew,
		DueAt:        now,
		IntervalDays: 0,
		Stability:    InitialStability,
		Repetitions:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks the ReviewItem invariants.
func (i *ReviewItem) Validate() error {
	if i.UserID == uuid.Nil {
		return ErrEmptyItemUserID
	}

	if i.ContentID == uuid.Nil {
		return ErrEmptyItemContentID
	}

	if !i.ContentType.IsValid() {
		return ErrInvalidContentType
	}

	if !i.State.IsValid() {
		return ErrInvalidItemState
	}

	if i.Stability < MinStability {
		return ErrInvalidStability
	}

	if i.State != ItemStateNew && i.IntervalDays < 1 {
		return ErrInvalidInterval
	}

	if i.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	return nil
}

// IsDue reports whether the item is due for review at the given time.
// New items are always due regardless of DueAt.
func (i *ReviewItem) IsDue(asOf time.Time) bool {
	return i.State == ItemStateNew || !i.DueAt.After(asOf)
}

// IsOverdue reports whether the item's due time fell strictly before the
// start of the day containing asOf. New items are never overdue.
func (i *ReviewItem) IsOverdue(asOf time.Time) bool {
	if i.State == ItemStateNew {
		return false
	}
	return i.DueAt.Before(StartOfDay(asOf))
}

// StartOfDay truncates t to midnight UTC of the same day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
