package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/memory"
	"github.com/recallmed/recall-api/internal/store"
)

func seedItem(
	t *testing.T,
	items store.ReviewItemStore,
	userID uuid.UUID,
	contentType domain.ContentType,
	state domain.ItemState,
	dueAt time.Time,
) *domain.ReviewItem {
	t.Helper()

	item, err := domain.NewReviewItem(userID, contentType, uuid.New())
	require.NoError(t, err)

	item.State = state
	item.DueAt = dueAt
	if state != domain.ItemStateNew {
		item.IntervalDays = 1
	}

	require.NoError(t, items.Upsert(context.Background(), item))
	return item
}

func TestBuildQueueOrdersOverdueFirst(t *testing.T) {
	t.Parallel()

	items := memory.NewReviewItemStore()
	builder := NewBuilder(items, 0, nil, nil)
	userID := uuid.New()
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	dueToday := seedItem(t, items, userID, domain.ContentTypeFlashcard,
		domain.ItemStateReview, now.Add(-2*time.Hour))
	overdue := seedItem(t, items, userID, domain.ContentTypeFlashcard,
		domain.ItemStateReview, now.AddDate(0, 0, -3))
	veryOverdue := seedItem(t, items, userID, domain.ContentTypeFlashcard,
		domain.ItemStateReview, now.AddDate(0, 0, -10))
	notDue := seedItem(t, items, userID, domain.ContentTypeFlashcard,
		domain.ItemStateReview, now.AddDate(0, 0, 2))

	entries, err := builder.BuildQueue(context.Background(), userID, Request{AsOf: now})
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, veryOverdue.ContentID, entries[0].ContentID)
	assert.Equal(t, overdue.ContentID, entries[1].ContentID)
	assert.Equal(t, dueToday.ContentID, entries[2].ContentID)

	assert.True(t, entries[0].IsOverdue)
	assert.True(t, entries[1].IsOverdue)
	assert.False(t, entries[2].IsOverdue)

	for _, entry := range entries {
		assert.NotEqual(t, notDue.ContentID, entry.ContentID)
	}
}

func TestBuildQueueTypePriorityBreaksTies(t *testing.T) {
	t.Parallel()

	items := memory.NewReviewItemStore()
	builder := NewBuilder(items, 0, nil, nil)
	userID := uuid.New()
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	dueAt := now.Add(-1 * time.Hour)

	flashcard := seedItem(t, items, userID, domain.ContentTypeFlashcard,
		domain.ItemStateReview, dueAt)
	question := seedItem(t, items, userID, domain.ContentTypeQuestion,
		domain.ItemStateReview, dueAt)
	notebook := seedItem(t, items, userID, domain.ContentTypeErrorNotebook,
		domain.ItemStateReview, dueAt)

	entries, err := builder.BuildQueue(context.Background(), userID, Request{AsOf: now})
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, question.ContentID, entries[0].ContentID)
	assert.Equal(t, flashcard.ContentID, entries[1].ContentID)
	assert.Equal(t, notebook.ContentID, entries[2].ContentID)
}

func TestBuildQueueIncludesNewItems(t *testing.T) {
	t.Parallel()

	items := memory.NewReviewItemStore()
	builder := NewBuilder(items, 0, nil, nil)
	userID := uuid.New()
	now := time.Now().UTC()

	// A new item with a future DueAt is still due, but never overdue.
	newItem := seedItem(t, items, userID, domain.ContentTypeQuestion,
		domain.ItemStateNew, now.AddDate(0, 0, 1))

	entries, err := builder.BuildQueue(context.Background(), userID, Request{AsOf: now})
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, newItem.ContentID, entries[0].ContentID)
	assert.False(t, entries[0].IsOverdue)
}

func TestBuildQueueLimits(t *testing.T) {
	t.Parallel()

	items := memory.NewReviewItemStore()
	builder := NewBuilder(items, 0, nil, nil)
	userID := uuid.New()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		seedItem(t, items, userID, domain.ContentTypeFlashcard,
			domain.ItemStateReview, now.Add(-time.Duration(i+1)*time.Hour))
	}
	for i := 0; i < 5; i++ {
		seedItem(t, items, userID, domain.ContentTypeQuestion,
			domain.ItemStateReview, now.Add(-time.Duration(i+1)*time.Hour))
	}

	entries, err := builder.BuildQueue(context.Background(), userID, Request{
		AsOf:       now,
		TypeLimits: map[domain.ContentType]int{domain.ContentTypeFlashcard: 2},
	})
	require.NoError(t, err)

	flashcards := 0
	questions := 0
	for _, entry := range entries {
		switch entry.ContentType {
		case domain.ContentTypeFlashcard:
			flashcards++
		case domain.ContentTypeQuestion:
			questions++
		}
	}
	assert.Equal(t, 2, flashcards)
	assert.Equal(t, 5, questions)

	capped, err := builder.BuildQueue(context.Background(), userID, Request{
		AsOf:       now,
		TotalLimit: 3,
	})
	require.NoError(t, err)
	assert.Len(t, capped, 3)
}

func TestBuildQueueExplicitZeroExcludesType(t *testing.T) {
	t.Parallel()

	items := memory.NewReviewItemStore()
	builder := NewBuilder(items, 0, nil, nil)
	userID := uuid.New()
	now := time.Now().UTC()

	seedItem(t, items, userID, domain.ContentTypeFlashcard, domain.ItemStateReview, now.Add(-time.Hour))
	seedItem(t, items, userID, domain.ContentTypeQuestion, domain.ItemStateReview, now.Add(-time.Hour))

	entries, err := builder.BuildQueue(context.Background(), userID, Request{
		AsOf:       now,
		TypeLimits: map[domain.ContentType]int{domain.ContentTypeFlashcard: 0},
	})
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, domain.ContentTypeQuestion, entries[0].ContentType)
}

func TestBuildQueueIsIdempotent(t *testing.T) {
	t.Parallel()

	items := memory.NewReviewItemStore()
	builder := NewBuilder(items, 0, nil, nil)
	userID := uuid.New()
	now := time.Now().UTC()

	for i := 0; i < 4; i++ {
		seedItem(t, items, userID, domain.ContentTypeFlashcard,
			domain.ItemStateReview, now.Add(-time.Duration(i+1)*time.Hour))
	}

	first, err := builder.BuildQueue(context.Background(), userID, Request{AsOf: now})
	require.NoError(t, err)

	second, err := builder.BuildQueue(context.Background(), userID, Request{AsOf: now})
	require.NoError(t, err)

	assert.Equal(t, first, second, "building the queue must not mutate anything")
}

func TestBuildQueueRejectsNegativeLimits(t *testing.T) {
	t.Parallel()

	builder := NewBuilder(memory.NewReviewItemStore(), 0, nil, nil)

	_, err := builder.BuildQueue(context.Background(), uuid.New(), Request{TotalLimit: -1})
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = builder.BuildQueue(context.Background(), uuid.New(), Request{
		TypeLimits: map[domain.ContentType]int{domain.ContentTypeFlashcard: -2},
	})
	assert.ErrorIs(t, err, ErrInvalidLimit)
}
