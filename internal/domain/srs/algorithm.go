package srs

import (
	"math"
	"time"

	"github.com/recallmed/recall-api/internal/domain"
)

// calculateNewStability determines the new stability factor after a review.
//
// This is the classic SM-2 ease-factor update:
//
//	EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// where q is the 0-5 quality of the response. A perfect recall (q=5) grows
// stability by 0.1; a lapse (q=0) shrinks it by 0.8. The result is floored
// at params.MinStability so intervals never collapse entirely.
func calculateNewStability(current float64, quality int, params *Params) float64 {
	q := float64(quality)
	newStability := current + (0.1 - (5-q)*(0.08+(5-q)*0.02))

	if newStability < params.MinStability {
		newStability = params.MinStability
	}

	return newStability
}

// calculateNewInterval determines the new interval in days.
//
// A lapse (quality < 3) resets the interval to params.LapseInterval. On
// success the interval follows the SM-2 ladder: the first successful review
// earns params.FirstInterval, the second params.SecondInterval, and every
// review after that multiplies the previous interval by the updated
// stability factor, rounded to the nearest whole day.
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	newStability float64,
	quality int,
	params *Params,
) int {
	if quality < 3 {
		return params.LapseInterval
	}

	switch repetitions {
	case 0:
		return params.FirstInterval
	case 1:
		return params.SecondInterval
	default:
		interval := int(math.Round(float64(currentInterval) * newStability))
		if interval < 1 {
			interval = 1
		}
		return interval
	}
}

// nextState determines the lifecycle state after a graded review.
// A lapse sends a previously scheduled item to relearning; an item still on
// its first exposure stays in learning. Successful reviews move through
// learning into review once the item has two consecutive correct answers.
func nextState(current domain.ItemState, newRepetitions int, quality int) domain.ItemState {
	if quality < 3 {
		if current == domain.ItemStateNew || current == domain.ItemStateLearning {
			return domain.ItemStateLearning
		}
		return domain.ItemStateRelearning
	}

	if newRepetitions >= 2 {
		return domain.ItemStateReview
	}
	return domain.ItemStateLearning
}

// calculateNextItem computes the full post-review scheduling state.
//
// It follows the immutable update pattern: the input item is never modified
// and a new ReviewItem is returned. The caller owns persistence. A `now`
// earlier than the item's LastReviewedAt is tolerated; reviews recorded
// slightly out of order by client retries still produce a valid schedule.
func calculateNextItem(
	item *domain.ReviewItem,
	grade domain.Grade,
	now time.Time,
	params *Params,
) *domain.ReviewItem {
	newItem := *item
	quality := grade.Quality()

	newItem.Stability = calculateNewStability(item.Stability, quality, params)
	newItem.IntervalDays = calculateNewInterval(
		item.IntervalDays,
		item.Repetitions,
		newItem.Stability,
		quality,
		params,
	)

	if quality < 3 {
		newItem.Repetitions = 0
	} else {
		newItem.Repetitions = item.Repetitions + 1
	}

	newItem.State = nextState(item.State, newItem.Repetitions, quality)
	newItem.DueAt = now.AddDate(0, 0, newItem.IntervalDays)
	reviewedAt := now
	newItem.LastReviewedAt = &reviewedAt
	newItem.UpdatedAt = now

	return &newItem
}
