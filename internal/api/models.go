package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// GradeReviewRequest defines the payload for grading one review.
type GradeReviewRequest struct {
	ContentType string    `json:"content_type" validate:"required,oneof=flashcard question error_notebook"`
	ContentID   uuid.UUID `json:"content_id"   validate:"required"`
	Grade       string    `json:"grade"        validate:"required,oneof=again hard good easy"`

	// ReviewedAt optionally backdates the review, e.g. when a client
	// flushes an offline batch. Omitted means now.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// ReviewItemResponse represents the scheduling state of one item.
type ReviewItemResponse struct {
	UserID         string     `json:"user_id"`
	ContentType    string     `json:"content_type"`
	ContentID      string     `json:"content_id"`
	State          string     `json:"state"`
	DueAt          time.Time  `json:"due_at"`
	IntervalDays   int        `json:"interval_days"`
	Stability      float64    `json:"stability"`
	Repetitions    int        `json:"repetitions"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// QueueEntryResponse represents one position in the assembled review queue.
type QueueEntryResponse struct {
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	State       string    `json:"state"`
	DueAt       time.Time `json:"due_at"`
	IsOverdue   bool      `json:"is_overdue"`
}

// QueueResponse wraps the assembled queue.
type QueueResponse struct {
	Entries []QueueEntryResponse `json:"entries"`
	Total   int                  `json:"total"`
}

// CreateSessionRequest defines the payload for starting a review session.
type CreateSessionRequest struct {
	ContentType string      `json:"content_type" validate:"required,oneof=flashcard question error_notebook"`
	ItemIDs     []uuid.UUID `json:"item_ids"     validate:"required,min=1"`
}

// SessionResponse represents a review session's state.
type SessionResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	ContentType      string     `json:"content_type"`
	ItemIDs          []string   `json:"item_ids"`
	CompletedItemIDs []string   `json:"completed_item_ids"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// OverdueStatsResponse summarizes the caller's overdue backlog.
type OverdueStatsResponse struct {
	TotalOverdue      int            `json:"total_overdue"`
	ByType            map[string]int `json:"by_type"`
	VeryOverdueCount  int            `json:"very_overdue_count"`
	OldestOverdueDays int            `json:"oldest_overdue_days"`
}

// RescheduleOverdueRequest defines the payload for redistributing overdue
// items. At least one of DaysToDistribute or NewDate must be set; together
// they spread the backlog across the window starting at NewDate.
type RescheduleOverdueRequest struct {
	ContentTypes     []string   `json:"content_types,omitempty" validate:"omitempty,dive,oneof=flashcard question error_notebook"`
	DaysToDistribute *int       `json:"days_to_distribute,omitempty"`
	NewDate          *time.Time `json:"new_date,omitempty"`
}

// RescheduleOverdueResponse reports what a reschedule touched.
type RescheduleOverdueResponse struct {
	Rescheduled int64      `json:"rescheduled"`
	FirstDueAt  *time.Time `json:"first_due_at,omitempty"`
	LastDueAt   *time.Time `json:"last_due_at,omitempty"`
}

// BulkItemsRequest defines the payload for bulk delete and bulk reset. The
// scope must be explicit: specific content IDs, content types, or all=true.
type BulkItemsRequest struct {
	ContentIDs   []uuid.UUID `json:"content_ids,omitempty"`
	ContentTypes []string    `json:"content_types,omitempty" validate:"omitempty,dive,oneof=flashcard question error_notebook"`
	All          bool        `json:"all,omitempty"`
}

// BulkItemsResponse reports how many items a bulk operation affected.
type BulkItemsResponse struct {
	Affected int64 `json:"affected"`
}
