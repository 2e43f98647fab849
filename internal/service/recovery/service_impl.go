package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	items store.ReviewItemStore

	// veryOverdueDays is the threshold beyond which an overdue item counts
	// as very overdue in stats.
	veryOverdueDays int

	// initialStability is applied to items when their progress is reset.
	initialStability float64

	logger *slog.Logger
}

// NewService creates a recovery Service. veryOverdueDays values below 1
// fall back to 7.
func NewService(
	items store.ReviewItemStore,
	veryOverdueDays int,
	initialStability float64,
	log *slog.Logger,
) Service {
	if items == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review item store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if veryOverdueDays < 1 {
		veryOverdueDays = 7
	}
	if initialStability < domain.MinStability {
		initialStability = domain.InitialStability
	}

	return &serviceImpl{
		items:            items,
		veryOverdueDays:  veryOverdueDays,
		initialStability: initialStability,
		logger:           log.With(slog.String("component", "recovery_service")),
	}
}

// GetOverdueStats implements Service.GetOverdueStats.
func (s *serviceImpl) GetOverdueStats(
	ctx context.Context,
	userID uuid.UUID,
	contentTypes []domain.ContentType,
	asOf time.Time,
) (*OverdueStats, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = asOf.UTC()

	overdue, err := s.items.QueryOverdue(ctx, userID, contentTypes, asOf)
	if err != nil {
		return nil, &ServiceError{Operation: "get_overdue_stats", Message: "failed to query overdue items", Err: err}
	}

	stats := &OverdueStats{
		ByType: make(map[domain.ContentType]int),
	}

	today := domain.StartOfDay(asOf)
	for _, item := range overdue {
		stats.TotalOverdue++
		stats.ByType[item.ContentType]++

		daysOverdue := int(today.Sub(domain.StartOfDay(item.DueAt)).Hours() / 24)
		if daysOverdue > s.veryOverdueDays {
			stats.VeryOverdueCount++
		}
		if daysOverdue > stats.OldestOverdueDays {
			stats.OldestOverdueDays = daysOverdue
		}
	}

	return stats, nil
}

// Reschedule implements Service.Reschedule.
func (s *serviceImpl) Reschedule(
	ctx context.Context,
	userID uuid.UUID,
	request RescheduleRequest,
) (*RescheduleResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if request.DaysToDistribute == nil && request.NewDate == nil {
		return nil, ErrMissingTarget
	}
	if request.DaysToDistribute != nil && *request.DaysToDistribute < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDays, *request.DaysToDistribute)
	}

	now := time.Now().UTC()
	overdue, err := s.items.QueryOverdue(ctx, userID, request.ContentTypes, now)
	if err != nil {
		return nil, &ServiceError{Operation: "reschedule", Message: "failed to query overdue items", Err: err}
	}

	if len(overdue) == 0 {
		return &RescheduleResult{}, nil
	}

	updates := make([]store.DueDateUpdate, 0, len(overdue))
	var first, last time.Time

	if request.DaysToDistribute == nil {
		target := domain.StartOfDay(*request.NewDate)
		first, last = target, target
		for _, item := range overdue {
			updates = append(updates, store.DueDateUpdate{
				ContentType: item.ContentType,
				ContentID:   item.ContentID,
				DueAt:       target,
			})
		}
	} else {
		// Round-robin across the window so every day gets a near-equal
		// share and the most overdue items land on the earliest days. The
		// overdue query already orders by due time ascending. NewDate, when
		// present, shifts the start of the window; it never collapses it.
		days := *request.DaysToDistribute
		start := domain.StartOfDay(now)
		if request.NewDate != nil {
			start = domain.StartOfDay(*request.NewDate)
		}
		for i, item := range overdue {
			dueAt := start.AddDate(0, 0, i%days)
			updates = append(updates, store.DueDateUpdate{
				ContentType: item.ContentType,
				ContentID:   item.ContentID,
				DueAt:       dueAt,
			})
			if first.IsZero() || dueAt.Before(first) {
				first = dueAt
			}
			if dueAt.After(last) {
				last = dueAt
			}
		}
	}

	affected, err := s.items.UpdateDueDates(ctx, userID, updates)
	if err != nil {
		return nil, &ServiceError{Operation: "reschedule", Message: "failed to update due dates", Err: err}
	}

	log.Info("overdue items rescheduled",
		slog.String("user_id", userID.String()),
		slog.Int64("rescheduled", affected),
		slog.Time("first_due_at", first),
		slog.Time("last_due_at", last))

	return &RescheduleResult{
		Rescheduled: affected,
		FirstDueAt:  first,
		LastDueAt:   last,
	}, nil
}

// BulkDelete implements Service.BulkDelete.
func (s *serviceImpl) BulkDelete(
	ctx context.Context,
	userID uuid.UUID,
	filter store.BulkFilter,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !filter.IsScoped() {
		return 0, ErrUnscopedFilter
	}

	deleted, err := s.items.BulkDelete(ctx, userID, filter)
	if err != nil {
		return 0, &ServiceError{Operation: "bulk_delete", Message: "failed to delete review items", Err: err}
	}

	log.Info("review items deleted",
		slog.String("user_id", userID.String()),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

// BulkResetProgress implements Service.BulkResetProgress.
func (s *serviceImpl) BulkResetProgress(
	ctx context.Context,
	userID uuid.UUID,
	filter store.BulkFilter,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !filter.IsScoped() {
		return 0, ErrUnscopedFilter
	}

	reset, err := s.items.BulkReset(ctx, userID, filter, s.initialStability)
	if err != nil {
		return 0, &ServiceError{Operation: "bulk_reset", Message: "failed to reset review items", Err: err}
	}

	log.Info("review progress reset",
		slog.String("user_id", userID.String()),
		slog.Int64("reset", reset))
	return reset, nil
}
