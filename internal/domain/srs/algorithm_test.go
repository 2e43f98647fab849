package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmed/recall-api/internal/domain"
)

func newTestItem(t *testing.T) *domain.ReviewItem {
	t.Helper()
	item, err := domain.NewReviewItem(uuid.New(), domain.ContentTypeFlashcard, uuid.New())
	require.NoError(t, err)
	return item
}

func TestCalculateNewStability(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		quality  int
		expected float64
	}{
		{
			name:     "good keeps stability unchanged",
			current:  2.5,
			quality:  4,
			expected: 2.5,
		},
		{
			name:     "easy grows stability by 0.1",
			current:  2.5,
			quality:  5,
			expected: 2.6,
		},
		{
			name:     "hard shrinks stability by 0.14",
			current:  2.5,
			quality:  3,
			expected: 2.36,
		},
		{
			name:     "again shrinks stability by 0.8",
			current:  2.5,
			quality:  0,
			expected: 1.7,
		},
		{
			name:     "stability never drops below the floor",
			current:  1.35,
			quality:  0,
			expected: 1.3,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := calculateNewStability(tc.current, tc.quality, params)
			assert.InDelta(t, tc.expected, result, 1e-9)
		})
	}
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()

	testCases := []struct {
		name            string
		currentInterval int
		repetitions     int
		newStability    float64
		quality         int
		expected        int
	}{
		{
			name:            "lapse resets to one day",
			currentInterval: 30,
			repetitions:     5,
			newStability:    1.7,
			quality:         0,
			expected:        1,
		},
		{
			name:            "first success earns one day",
			currentInterval: 0,
			repetitions:     0,
			newStability:    2.5,
			quality:         4,
			expected:        1,
		},
		{
			name:            "second success earns six days",
			currentInterval: 1,
			repetitions:     1,
			newStability:    2.5,
			quality:         4,
			expected:        6,
		},
		{
			name:            "third success multiplies by stability",
			currentInterval: 6,
			repetitions:     2,
			newStability:    2.5,
			quality:         4,
			expected:        15,
		},
		{
			name:            "multiplication rounds to nearest day",
			currentInterval: 15,
			repetitions:     3,
			newStability:    2.36,
			quality:         3,
			expected:        35, // 15 * 2.36 = 35.4
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := calculateNewInterval(
				tc.currentInterval, tc.repetitions, tc.newStability, tc.quality, params)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestIntervalUsesUpdatedStability(t *testing.T) {
	t.Parallel()

	// An easy grade must multiply by the grown stability, not the value the
	// item carried into the review: 10 * 2.6 = 26, not 10 * 2.5 = 25.
	item := newTestItem(t)
	item.State = domain.ItemStateReview
	item.Stability = 2.5
	item.IntervalDays = 10
	item.Repetitions = 3

	now := time.Now().UTC()
	next := calculateNextItem(item, domain.GradeEasy, now, NewDefaultParams())

	assert.InDelta(t, 2.6, next.Stability, 1e-9)
	assert.Equal(t, 26, next.IntervalDays)
}

func TestNextState(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		current        domain.ItemState
		newRepetitions int
		quality        int
		expected       domain.ItemState
	}{
		{
			name:           "new item lapse stays in learning",
			current:        domain.ItemStateNew,
			newRepetitions: 0,
			quality:        0,
			expected:       domain.ItemStateLearning,
		},
		{
			name:           "learning item lapse stays in learning",
			current:        domain.ItemStateLearning,
			newRepetitions: 0,
			quality:        0,
			expected:       domain.ItemStateLearning,
		},
		{
			name:           "review item lapse moves to relearning",
			current:        domain.ItemStateReview,
			newRepetitions: 0,
			quality:        0,
			expected:       domain.ItemStateRelearning,
		},
		{
			name:           "first success stays in learning",
			current:        domain.ItemStateNew,
			newRepetitions: 1,
			quality:        4,
			expected:       domain.ItemStateLearning,
		},
		{
			name:           "second success graduates to review",
			current:        domain.ItemStateLearning,
			newRepetitions: 2,
			quality:        4,
			expected:       domain.ItemStateReview,
		},
		{
			name:           "relearning item recovers through the ladder",
			current:        domain.ItemStateRelearning,
			newRepetitions: 1,
			quality:        4,
			expected:       domain.ItemStateLearning,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, nextState(tc.current, tc.newRepetitions, tc.quality))
		})
	}
}

func TestCalculateNextItemLapse(t *testing.T) {
	t.Parallel()

	item := newTestItem(t)
	item.State = domain.ItemStateReview
	item.Stability = 2.5
	item.IntervalDays = 15
	item.Repetitions = 3

	now := time.Now().UTC()
	next := calculateNextItem(item, domain.GradeAgain, now, NewDefaultParams())

	assert.Equal(t, 0, next.Repetitions, "lapse resets repetitions")
	assert.Equal(t, 1, next.IntervalDays, "lapse resets interval to one day")
	assert.InDelta(t, 1.7, next.Stability, 1e-9)
	assert.Equal(t, domain.ItemStateRelearning, next.State)
	assert.Equal(t, now.AddDate(0, 0, 1), next.DueAt)
	require.NotNil(t, next.LastReviewedAt)
	assert.Equal(t, now, *next.LastReviewedAt)
}

func TestCalculateNextItemDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	item := newTestItem(t)
	original := *item

	_ = calculateNextItem(item, domain.GradeGood, time.Now().UTC(), NewDefaultParams())

	assert.Equal(t, original, *item)
}

func TestGradeSuccessLadder(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	item := newTestItem(t)
	now := time.Now().UTC()

	// First review: 1 day.
	item, err := svc.Grade(item, domain.GradeGood, now)
	require.NoError(t, err)
	assert.Equal(t, 1, item.IntervalDays)
	assert.Equal(t, 1, item.Repetitions)
	assert.Equal(t, domain.ItemStateLearning, item.State)

	// Second review: 6 days, graduates to review.
	now = now.AddDate(0, 0, 1)
	item, err = svc.Grade(item, domain.GradeGood, now)
	require.NoError(t, err)
	assert.Equal(t, 6, item.IntervalDays)
	assert.Equal(t, domain.ItemStateReview, item.State)

	// Third review: 6 * 2.5 = 15 days.
	now = now.AddDate(0, 0, 6)
	item, err = svc.Grade(item, domain.GradeGood, now)
	require.NoError(t, err)
	assert.Equal(t, 15, item.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 15), item.DueAt)
}

func TestGradeRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()

	_, err := svc.Grade(nil, domain.GradeGood, time.Now())
	assert.ErrorIs(t, err, ErrNilItem)

	_, err = svc.Grade(newTestItem(t), domain.Grade("perfect"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidGrade)
}
