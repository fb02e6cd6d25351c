// Package srs implements the SM-2 spaced repetition algorithm as a pure
// transform over per-card memory records. It performs no I/O; persistence
// lives in the repository layer.
package srs

import (
	"math"
	"time"

	"flashdecks_backend/internal/util"
)

// Quality ratings, 0..5 per SuperMemo-2.
const (
	QualityBlackout  = 0
	QualityIncorrect = 1
	QualityFamiliar  = 2
	QualityDifficult = 3
	QualityHesitant  = 4
	QualityPerfect   = 5
)

const (
	// Easiness never drops below this floor.
	MinEasiness = 1.3
	// Defaults for a record seen for the first time.
	InitialEasiness = 2.5
	InitialInterval = 1
)

// Record is the scheduling state for one learner and one card.
type Record struct {
	Repetitions  int
	IntervalDays int
	Easiness     float64
	DueAt        time.Time
	LastQuality  *int
}

// NewRecord returns the state of a card that has never been reviewed.
// It is due immediately.
func NewRecord(now time.Time) Record {
	return Record{
		Repetitions:  0,
		IntervalDays: InitialInterval,
		Easiness:     InitialEasiness,
		DueAt:        now,
	}
}

// Apply runs one SM-2 review over rec and returns the updated record.
// quality outside 0..5 fails with util.ErrInvalidQuality. The input record
// is not mutated; identical inputs always produce identical outputs.
func Apply(rec Record, quality int, now time.Time) (Record, error) {
	if quality < QualityBlackout || quality > QualityPerfect {
		return Record{}, util.ErrInvalidQuality
	}

	out := rec

	if quality < QualityDifficult {
		out.Repetitions = 0
		out.IntervalDays = 1
	} else {
		out.Repetitions = rec.Repetitions + 1
		switch out.Repetitions {
		case 1:
			out.IntervalDays = 1
		case 2:
			out.IntervalDays = 6
		default:
			// Interval grows by the pre-update easiness, round half up.
			out.IntervalDays = int(math.Floor(float64(rec.IntervalDays)*rec.Easiness + 0.5))
		}
	}
	if out.IntervalDays < 1 {
		out.IntervalDays = 1
	}

	q := float64(quality)
	ef := rec.Easiness + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if ef < MinEasiness {
		ef = MinEasiness
	}
	out.Easiness = ef

	out.DueAt = now.AddDate(0, 0, out.IntervalDays)
	out.LastQuality = &quality

	return out, nil
}
