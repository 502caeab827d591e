package trend

import (
	"math"
	"time"
)

// Policy is the trend decay/threshold policy. The same arithmetic is
// embedded in the atomic observe statement (repository.KeywordRepository);
// the Go form exists for the sweep loop and for testing the invariants.
//
// Score evolution:
//
//	decayed = score * 2^(-elapsed/halfLife)
//	bumped  = gain + (1-gain) * decayed
//
// Decay never increases a score; a bump stays strictly below 1 while the
// input is below 1, so the score is confined to [0, 1].
type Policy struct {
	HalfLife  time.Duration
	Gain      float64
	Threshold float64
}

// DefaultPolicy mirrors the config defaults.
func DefaultPolicy() Policy {
	return Policy{
		HalfLife:  6 * time.Hour,
		Gain:      0.2,
		Threshold: 0.7,
	}
}

// Decay returns the score after elapsed time with no observations.
func (p Policy) Decay(score float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return clamp(score)
	}
	return clamp(score * math.Exp(-math.Ln2*elapsed.Seconds()/p.HalfLife.Seconds()))
}

// Bump applies one observation on top of an already-decayed score.
func (p Policy) Bump(decayed float64) float64 {
	return clamp(p.Gain + (1-p.Gain)*clamp(decayed))
}

// Seed is the score assigned to a keyword's first observation.
func (p Policy) Seed() float64 {
	return p.Bump(0)
}

// Trending derives the trending flag from a score. It is the only way the
// flag is ever computed.
func (p Policy) Trending(score float64) bool {
	return score > p.Threshold
}

func clamp(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
