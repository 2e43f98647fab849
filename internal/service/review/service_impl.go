package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/domain/srs"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/service/session"
	"github.com/recallmed/recall-api/internal/store"
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	items    store.ReviewItemStore
	sessions session.Manager
	srs      srs.Service

	// db enables transactional grading. When nil (memory-backed stores),
	// grading runs against the store directly; upserts are individually
	// atomic there.
	db *sql.DB

	logger *slog.Logger
}

// NewReviewService creates a new ReviewService. sessionManager may be nil
// when session tracking is not wanted (e.g. tests exercising grading only).
func NewReviewService(
	items store.ReviewItemStore,
	sessionManager session.Manager,
	srsService srs.Service,
	db *sql.DB,
	log *slog.Logger,
) ReviewService {
	if items == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review item store cannot be nil")
	}
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srs service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &reviewServiceImpl{
		items:    items,
		sessions: sessionManager,
		srs:      srsService,
		db:       db,
		logger:   log.With(slog.String("component", "review_service")),
	}
}

// SubmitGrade implements ReviewService.SubmitGrade.
func (s *reviewServiceImpl) SubmitGrade(
	ctx context.Context,
	userID uuid.UUID,
	request GradeRequest,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !request.ContentType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentType, request.ContentType)
	}
	if !request.Grade.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGrade, request.Grade)
	}
	if request.ContentID == uuid.Nil {
		return nil, NewSubmitGradeError("content ID is required", nil)
	}

	reviewedAt := time.Now().UTC()
	if request.ReviewedAt != nil {
		reviewedAt = request.ReviewedAt.UTC()
	}

	var graded *domain.ReviewItem
	var err error
	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			graded, err = s.gradeAndPersist(ctx, s.items.WithTx(tx), userID, request, reviewedAt, true)
			return err
		})
	} else {
		graded, err = s.gradeAndPersist(ctx, s.items, userID, request, reviewedAt, false)
	}
	if err != nil {
		return nil, err
	}

	log.Info("review graded",
		slog.String("user_id", userID.String()),
		slog.String("content_type", request.ContentType.String()),
		slog.String("content_id", request.ContentID.String()),
		slog.String("grade", request.Grade.String()),
		slog.String("state", graded.State.String()),
		slog.Int("interval_days", graded.IntervalDays),
		slog.Time("due_at", graded.DueAt))

	// Session progress is best effort relative to the grade itself: the
	// scheduling update is already committed, so a session failure is
	// surfaced but cannot lose the review.
	if s.sessions != nil {
		if err := s.sessions.CompleteItemForUser(ctx, userID, request.ContentType, request.ContentID); err != nil {
			log.Error("failed to record session completion for graded item",
				slog.String("user_id", userID.String()),
				slog.String("content_id", request.ContentID.String()),
				slog.String("error", err.Error()))
			return graded, NewSubmitGradeError("grade saved but session update failed", err)
		}
	}

	return graded, nil
}

// gradeAndPersist loads or creates the item, applies the algorithm, and
// saves the result through the given store handle. locked selects
// GetForUpdate so concurrent grades of the same item serialize on the row.
func (s *reviewServiceImpl) gradeAndPersist(
	ctx context.Context,
	items store.ReviewItemStore,
	userID uuid.UUID,
	request GradeRequest,
	reviewedAt time.Time,
	locked bool,
) (*domain.ReviewItem, error) {
	var item *domain.ReviewItem
	var err error
	if locked {
		item, err = items.GetForUpdate(ctx, userID, request.ContentType, request.ContentID)
	} else {
		item, err = items.Get(ctx, userID, request.ContentType, request.ContentID)
	}
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, NewSubmitGradeError("failed to load review item", err)
		}
		// First exposure: grading unseen content implicitly creates its
		// scheduling record.
		item, err = domain.NewReviewItem(userID, request.ContentType, request.ContentID)
		if err != nil {
			return nil, NewSubmitGradeError("failed to create review item", err)
		}
		item.Stability = s.srs.NewItemDefaults()
	}

	graded, err := s.srs.Grade(item, request.Grade, reviewedAt)
	if err != nil {
		return nil, NewSubmitGradeError("failed to grade review item", err)
	}

	if err := items.Upsert(ctx, graded); err != nil {
		return nil, NewSubmitGradeError("failed to save review item", err)
	}

	return graded, nil
}
