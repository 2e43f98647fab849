package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/store"
)

// Verify interface compliance at compile time
var _ Builder = (*builderImpl)(nil)

// builderImpl implements the Builder interface.
type builderImpl struct {
	items           store.ReviewItemStore
	defaultPerType  int
	typePriority    []domain.ContentType
	priorityOrdinal map[domain.ContentType]int
	logger          *slog.Logger
}

// NewBuilder creates a queue Builder. defaultPerType is the per-type cap
// applied when a request does not specify one; zero means uncapped.
// typePriority controls tie-breaking order and which types participate by
// default; nil falls back to domain.AllContentTypes.
func NewBuilder(
	items store.ReviewItemStore,
	defaultPerType int,
	typePriority []domain.ContentType,
	log *slog.Logger,
) Builder {
	if items == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review item store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if len(typePriority) == 0 {
		typePriority = domain.AllContentTypes
	}

	ordinals := make(map[domain.ContentType]int, len(typePriority))
	for i, ct := range typePriority {
		ordinals[ct] = i
	}

	return &builderImpl{
		items:           items,
		defaultPerType:  defaultPerType,
		typePriority:    typePriority,
		priorityOrdinal: ordinals,
		logger:          log.With(slog.String("component", "queue_builder")),
	}
}

// BuildQueue implements Builder.BuildQueue.
func (b *builderImpl) BuildQueue(
	ctx context.Context,
	userID uuid.UUID,
	request Request,
) ([]Entry, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if request.TotalLimit < 0 {
		return nil, fmt.Errorf("%w: total limit %d", ErrInvalidLimit, request.TotalLimit)
	}
	for ct, limit := range request.TypeLimits {
		if limit < 0 {
			return nil, fmt.Errorf("%w: %s limit %d", ErrInvalidLimit, ct, limit)
		}
	}

	asOf := request.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = asOf.UTC()

	var entries []Entry
	for _, contentType := range b.typePriority {
		limit := b.defaultPerType
		if explicit, ok := request.TypeLimits[contentType]; ok {
			// An explicit zero excludes the type from this build; the
			// builder default of zero means uncapped.
			if explicit == 0 {
				continue
			}
			limit = explicit
		}

		ct := contentType
		due, err := b.items.QueryDue(ctx, userID, &ct, asOf, limit)
		if err != nil {
			return nil, &ServiceError{Operation: "build_queue", Message: fmt.Sprintf("failed to query due %s items", ct), Err: err}
		}

		for _, item := range due {
			entries = append(entries, Entry{
				ContentType: item.ContentType,
				ContentID:   item.ContentID,
				State:       item.State,
				DueAt:       item.DueAt,
				IsOverdue:   item.IsOverdue(asOf),
			})
		}
	}

	b.sortEntries(entries)

	if request.TotalLimit > 0 && len(entries) > request.TotalLimit {
		entries = entries[:request.TotalLimit]
	}

	log.Debug("queue assembled",
		slog.String("user_id", userID.String()),
		slog.Int("entry_count", len(entries)))

	return entries, nil
}

// sortEntries orders the merged queue: overdue before not-overdue, then by
// due time ascending, then by content type priority, then by content ID.
func (b *builderImpl) sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, c := entries[i], entries[j]
		if a.IsOverdue != c.IsOverdue {
			return a.IsOverdue
		}
		if !a.DueAt.Equal(c.DueAt) {
			return a.DueAt.Before(c.DueAt)
		}
		if a.ContentType != c.ContentType {
			return b.priorityOrdinal[a.ContentType] < b.priorityOrdinal[c.ContentType]
		}
		return a.ContentID.String() < c.ContentID.String()
	})
}
