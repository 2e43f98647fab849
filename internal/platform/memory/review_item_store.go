package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/store"
)

// itemKey is the unique identity of a review item.
type itemKey struct {
	userID      uuid.UUID
	contentType domain.ContentType
	contentID   uuid.UUID
}

// ReviewItemStore is a mutex-guarded, map-backed implementation of
// store.ReviewItemStore.
type ReviewItemStore struct {
	mu    sync.RWMutex
	items map[itemKey]*domain.ReviewItem
}

// NewReviewItemStore creates an empty in-memory review item store.
func NewReviewItemStore() *ReviewItemStore {
	return &ReviewItemStore{
		items: make(map[itemKey]*domain.ReviewItem),
	}
}

// Ensure ReviewItemStore implements store.ReviewItemStore
var _ store.ReviewItemStore = (*ReviewItemStore)(nil)

// WithTx implements store.ReviewItemStore.WithTx. The memory store has no
// transaction concept; operations are individually atomic under the mutex.
func (s *ReviewItemStore) WithTx(tx *sql.Tx) store.ReviewItemStore {
	return s
}

// Get implements store.ReviewItemStore.Get
func (s *ReviewItemStore) Get(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
	contentID uuid.UUID,
) (*domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemKey{userID, contentType, contentID}]
	if !ok {
		return nil, store.ErrReviewItemNotFound
	}

	copied := *item
	return &copied, nil
}

// GetForUpdate implements store.ReviewItemStore.GetForUpdate. Without row
// locks it behaves exactly like Get.
func (s *ReviewItemStore) GetForUpdate(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
	contentID uuid.UUID,
) (*domain.ReviewItem, error) {
	return s.Get(ctx, userID, contentType, contentID)
}

// Upsert implements store.ReviewItemStore.Upsert
func (s *ReviewItemStore) Upsert(ctx context.Context, item *domain.ReviewItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *item
	s.items[itemKey{item.UserID, item.ContentType, item.ContentID}] = &copied
	return nil
}

// QueryDue implements store.ReviewItemStore.QueryDue
func (s *ReviewItemStore) QueryDue(
	ctx context.Context,
	userID uuid.UUID,
	contentType *domain.ContentType,
	asOf time.Time,
	limit int,
) ([]*domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*domain.ReviewItem
	for key, item := range s.items {
		if key.userID != userID {
			continue
		}
		if contentType != nil && key.contentType != *contentType {
			continue
		}
		if !item.IsDue(asOf) {
			continue
		}
		copied := *item
		due = append(due, &copied)
	}

	sortByDueAt(due)

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	return due, nil
}

// QueryOverdue implements store.ReviewItemStore.QueryOverdue
func (s *ReviewItemStore) QueryOverdue(
	ctx context.Context,
	userID uuid.UUID,
	contentTypes []domain.ContentType,
	asOf time.Time,
) ([]*domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var overdue []*domain.ReviewItem
	for key, item := range s.items {
		if key.userID != userID {
			continue
		}
		if len(contentTypes) > 0 && !containsType(contentTypes, key.contentType) {
			continue
		}
		if !item.IsOverdue(asOf) {
			continue
		}
		copied := *item
		overdue = append(overdue, &copied)
	}

	sortByDueAt(overdue)
	return overdue, nil
}

// UpdateDueDates implements store.ReviewItemStore.UpdateDueDates
func (s *ReviewItemStore) UpdateDueDates(
	ctx context.Context,
	userID uuid.UUID,
	updates []store.DueDateUpdate,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var affected int64
	for _, u := range updates {
		item, ok := s.items[itemKey{userID, u.ContentType, u.ContentID}]
		if !ok {
			continue
		}
		item.DueAt = u.DueAt
		item.UpdatedAt = now
		affected++
	}

	return affected, nil
}

// BulkDelete implements store.ReviewItemStore.BulkDelete
func (s *ReviewItemStore) BulkDelete(
	ctx context.Context,
	userID uuid.UUID,
	filter store.BulkFilter,
) (int64, error) {
	if !filter.IsScoped() {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key := range s.items {
		if key.userID != userID || !matchesFilter(key, filter) {
			continue
		}
		delete(s.items, key)
		deleted++
	}

	return deleted, nil
}

// BulkReset implements store.ReviewItemStore.BulkReset
func (s *ReviewItemStore) BulkReset(
	ctx context.Context,
	userID uuid.UUID,
	filter store.BulkFilter,
	initialStability float64,
) (int64, error) {
	if !filter.IsScoped() {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var reset int64
	for key, item := range s.items {
		if key.userID != userID || !matchesFilter(key, filter) {
			continue
		}
		item.State = domain.ItemStateNew
		item.Repetitions = 0
		item.IntervalDays = 1
		item.Stability = initialStability
		item.DueAt = now
		item.UpdatedAt = now
		reset++
	}

	return reset, nil
}

// matchesFilter mirrors the SQL adapter: constraints are ANDed, and an
// explicit All is only honored when no narrower constraint is present.
func matchesFilter(key itemKey, filter store.BulkFilter) bool {
	if len(filter.ContentIDs) > 0 {
		found := false
		for _, id := range filter.ContentIDs {
			if key.contentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.ContentTypes) > 0 && !containsType(filter.ContentTypes, key.contentType) {
		return false
	}

	return true
}

func containsType(types []domain.ContentType, t domain.ContentType) bool {
	for _, ct := range types {
		if ct == t {
			return true
		}
	}
	return false
}

// sortByDueAt orders items by DueAt ascending, breaking ties by content ID
// so results are deterministic.
func sortByDueAt(items []*domain.ReviewItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DueAt.Equal(items[j].DueAt) {
			return items[i].ContentID.String() < items[j].ContentID.String()
		}
		return items[i].DueAt.Before(items[j].DueAt)
	})
}
