// Package review orchestrates grading: it loads or creates the scheduling
// record for a piece of content, applies the grading algorithm, persists
// the new state, and feeds completion into any active session.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
)

// GradeRequest carries one graded review.
type GradeRequest struct {
	ContentType domain.ContentType
	ContentID   uuid.UUID
	Grade       domain.Grade

	// ReviewedAt optionally backdates the review; nil means now. A value
	// earlier than the item's last review is tolerated (client retries may
	// record reviews slightly out of order).
	ReviewedAt *time.Time
}

// Common error types for the review service.
var (
	// ErrInvalidGrade indicates a grade outside the four supported values.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrInvalidContentType indicates an unsupported content type.
	ErrInvalidContentType = errors.New("invalid content type")
)

// ReviewService processes graded reviews.
type ReviewService interface {
	// SubmitGrade applies the grading algorithm to the item identified by
	// (userID, request.ContentType, request.ContentID) and persists the new
	// scheduling state atomically. The first grade for unseen content
	// creates the scheduling record (state NEW, due immediately) before
	// grading it. If the user has an ACTIVE session for the content type
	// containing the item, the item is marked completed there.
	//
	// The grade is never silently dropped: any persistence failure is
	// returned to the caller so the client knows the review was not
	// recorded.
	SubmitGrade(ctx context.Context, userID uuid.UUID, request GradeRequest) (*domain.ReviewItem, error)
}

// ServiceError wraps errors from the review service with additional context.
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

// NewSubmitGradeError returns a new ServiceError for the submit_grade
// operation.
func NewSubmitGradeError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "submit_grade",
		Message:   message,
		Err:       err,
	}
}
