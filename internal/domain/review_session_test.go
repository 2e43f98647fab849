package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	itemIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	session, err := NewReviewSession(userID, ContentTypeQuestion, itemIDs)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, session.ID)
	assert.Equal(t, SessionStatusActive, session.Status)
	assert.Equal(t, itemIDs, session.ItemIDs)
	assert.Empty(t, session.CompletedItemIDs)
	assert.Nil(t, session.CompletedAt)
}

func TestNewReviewSessionRequiresItems(t *testing.T) {
	t.Parallel()

	_, err := NewReviewSession(uuid.New(), ContentTypeQuestion, nil)
	assert.ErrorIs(t, err, ErrEmptySessionItems)
}

func TestNewReviewSessionSnapshotsItemIDs(t *testing.T) {
	t.Parallel()

	itemIDs := []uuid.UUID{uuid.New(), uuid.New()}
	session, err := NewReviewSession(uuid.New(), ContentTypeFlashcard, itemIDs)
	require.NoError(t, err)

	// Mutating the caller's slice must not affect the session's snapshot.
	original := itemIDs[0]
	itemIDs[0] = uuid.New()
	assert.Equal(t, original, session.ItemIDs[0])
}

func TestNewReviewSessionDeduplicatesItemIDs(t *testing.T) {
	t.Parallel()

	first := uuid.New()
	second := uuid.New()
	session, err := NewReviewSession(uuid.New(), ContentTypeFlashcard,
		[]uuid.UUID{first, second, first, second, first})
	require.NoError(t, err)

	require.Equal(t, []uuid.UUID{first, second}, session.ItemIDs)

	// With the snapshot deduplicated, completing each distinct item once
	// completes the session.
	session.CompletedItemIDs = []uuid.UUID{first, second}
	assert.True(t, session.AllItemsCompleted())
}

func TestSessionItemTracking(t *testing.T) {
	t.Parallel()

	itemIDs := []uuid.UUID{uuid.New(), uuid.New()}
	session, err := NewReviewSession(uuid.New(), ContentTypeFlashcard, itemIDs)
	require.NoError(t, err)

	assert.True(t, session.ContainsItem(itemIDs[0]))
	assert.False(t, session.ContainsItem(uuid.New()))

	assert.False(t, session.IsItemCompleted(itemIDs[0]))
	assert.False(t, session.AllItemsCompleted())

	// Completion is set-wise; order does not matter.
	session.CompletedItemIDs = []uuid.UUID{itemIDs[1]}
	assert.False(t, session.AllItemsCompleted())

	session.CompletedItemIDs = []uuid.UUID{itemIDs[1], itemIDs[0]}
	assert.True(t, session.AllItemsCompleted())
}
