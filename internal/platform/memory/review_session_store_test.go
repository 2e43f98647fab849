package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/store"
)

func newTestSession(t *testing.T, userID uuid.UUID, contentType domain.ContentType) *domain.ReviewSession {
	t.Helper()
	session, err := domain.NewReviewSession(userID, contentType, []uuid.UUID{uuid.New(), uuid.New()})
	require.NoError(t, err)
	return session
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	t.Parallel()

	s := NewReviewSessionStore()
	ctx := context.Background()
	session := newTestSession(t, uuid.New(), domain.ContentTypeQuestion)

	require.NoError(t, s.Create(ctx, session))

	got, err := s.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ItemIDs, got.ItemIDs)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionStoreEnforcesSingleActive(t *testing.T) {
	t.Parallel()

	s := NewReviewSessionStore()
	ctx := context.Background()
	userID := uuid.New()

	first := newTestSession(t, userID, domain.ContentTypeQuestion)
	require.NoError(t, s.Create(ctx, first))

	// Second ACTIVE session for the same slot loses the race.
	second := newTestSession(t, userID, domain.ContentTypeQuestion)
	err := s.Create(ctx, second)
	assert.ErrorIs(t, err, store.ErrActiveSessionExists)

	// A different content type has its own slot.
	other := newTestSession(t, userID, domain.ContentTypeFlashcard)
	assert.NoError(t, s.Create(ctx, other))
}

func TestSessionStoreUpdateFreesActiveSlot(t *testing.T) {
	t.Parallel()

	s := NewReviewSessionStore()
	ctx := context.Background()
	userID := uuid.New()

	session := newTestSession(t, userID, domain.ContentTypeQuestion)
	require.NoError(t, s.Create(ctx, session))

	now := time.Now().UTC()
	session.Status = domain.SessionStatusCompleted
	session.CompletedAt = &now
	require.NoError(t, s.Update(ctx, session))

	_, err := s.FindActive(ctx, userID, domain.ContentTypeQuestion)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Slot is free for a fresh session.
	fresh := newTestSession(t, userID, domain.ContentTypeQuestion)
	assert.NoError(t, s.Create(ctx, fresh))
}

func TestSessionStoreFindActive(t *testing.T) {
	t.Parallel()

	s := NewReviewSessionStore()
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.FindActive(ctx, userID, domain.ContentTypeQuestion)
	assert.ErrorIs(t, err, store.ErrNotFound)

	session := newTestSession(t, userID, domain.ContentTypeQuestion)
	require.NoError(t, s.Create(ctx, session))

	found, err := s.FindActive(ctx, userID, domain.ContentTypeQuestion)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)
}

func TestSessionStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	s := NewReviewSessionStore()
	ctx := context.Background()
	session := newTestSession(t, uuid.New(), domain.ContentTypeQuestion)
	require.NoError(t, s.Create(ctx, session))

	got, err := s.GetByID(ctx, session.ID)
	require.NoError(t, err)
	got.CompletedItemIDs = append(got.CompletedItemIDs, uuid.New())

	reloaded, err := s.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.CompletedItemIDs)
}
