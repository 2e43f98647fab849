package srs

import (
	"errors"
	"time"

	"github.com/recallmed/recall-api/internal/domain"
)

// Common errors
var (
	ErrNilItem      = errors.New("review item cannot be nil")
	ErrInvalidGrade = errors.New("invalid grade")
)

// Service defines the interface for grading operations.
type Service interface {
	// Grade computes the post-review scheduling state for an item.
	// It is deterministic and side-effect-free; persistence is the
	// caller's responsibility.
	Grade(
		item *domain.ReviewItem,
		grade domain.Grade,
		now time.Time,
	) (*domain.ReviewItem, error)

	// NewItemDefaults returns the initial stability assigned to items on
	// first exposure, so callers creating records use the same parameters
	// the grading algorithm assumes.
	NewItemDefaults() (stability float64)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new grading service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new grading service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Grade implements the Service interface.
func (s *defaultService) Grade(
	item *domain.ReviewItem,
	grade domain.Grade,
	now time.Time,
) (*domain.ReviewItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if !grade.IsValid() {
		return nil, ErrInvalidGrade
	}

	return calculateNextItem(item, grade, now, s.params), nil
}

// NewItemDefaults implements the Service interface.
func (s *defaultService) NewItemDefaults() float64 {
	return s.params.InitialStability
}
