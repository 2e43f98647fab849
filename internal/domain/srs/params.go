package srs

import (
	"github.com/recallmed/recall-api/internal/domain"
)

// Params defines all configurable parameters for the grading algorithm.
type Params struct {
	// MinStability is the hard floor for the stability factor.
	MinStability float64

	// InitialStability is assigned to items on first exposure.
	InitialStability float64

	// FirstInterval is the interval in days after the first successful
	// review (repetitions == 0 at grading time).
	FirstInterval int

	// SecondInterval is the interval in days after the second consecutive
	// successful review (repetitions == 1 at grading time).
	SecondInterval int

	// LapseInterval is the interval in days assigned on a lapse; the item
	// returns to the front of the queue after this many days.
	LapseInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values keep the defaults.
type ParamsConfig struct {
	MinStability     float64
	InitialStability float64
	FirstInterval    int
	SecondInterval   int
	LapseInterval    int
}

// NewDefaultParams creates a new Params instance with the classic SM-2
// defaults: a 1.3 stability floor, a 2.5 starting stability, and the
// 1-day / 6-day initial interval ladder.
func NewDefaultParams() *Params {
	return &Params{
		MinStability:     domain.MinStability,
		InitialStability: domain.InitialStability,
		FirstInterval:    1,
		SecondInterval:   6,
		LapseInterval:    1,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinStability > 0 {
		params.MinStability = config.MinStability
	}
	if config.InitialStability > 0 {
		params.InitialStability = config.InitialStability
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}

	return params
}
