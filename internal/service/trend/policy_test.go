package trend

import (
	"testing"
	"time"
)

func TestDecayHalvesAtHalfLife(t *testing.T) {
	p := DefaultPolicy()
	got := p.Decay(0.8, p.HalfLife)
	if got < 0.399 || got > 0.401 {
		t.Errorf("expected ~0.4 after one half-life, got %f", got)
	}
}

func TestDecayNeverIncreases(t *testing.T) {
	p := DefaultPolicy()
	score := 0.9
	for _, elapsed := range []time.Duration{0, time.Minute, time.Hour, 24 * time.Hour} {
		got := p.Decay(score, elapsed)
		if got > score {
			t.Errorf("decay over %v increased score: %f > %f", elapsed, got, score)
		}
		score = got
	}
}

func TestDecayComposes(t *testing.T) {
	p := DefaultPolicy()
	whole := p.Decay(0.8, 4*time.Hour)
	split := p.Decay(p.Decay(0.8, 1*time.Hour), 3*time.Hour)
	if diff := whole - split; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("split decay diverged from whole-interval decay: %f vs %f", split, whole)
	}
}

func TestBumpStaysInUnitInterval(t *testing.T) {
	p := DefaultPolicy()
	for _, decayed := range []float64{-0.5, 0, 0.3, 0.9999, 1, 2} {
		got := p.Bump(decayed)
		if got < 0 || got > 1 {
			t.Errorf("Bump(%f) = %f escaped [0,1]", decayed, got)
		}
	}
}

func TestBumpNeverBelowGain(t *testing.T) {
	p := DefaultPolicy()
	if got := p.Bump(0); got != p.Gain {
		t.Errorf("bump of zero score should equal gain %f, got %f", p.Gain, got)
	}
	if got := p.Bump(0.5); got < p.Gain {
		t.Errorf("bump fell below gain floor: %f < %f", got, p.Gain)
	}
}

func TestSeedEqualsGain(t *testing.T) {
	p := DefaultPolicy()
	if got := p.Seed(); got != p.Gain {
		t.Errorf("first observation should seed at gain %f, got %f", p.Gain, got)
	}
}

func TestRepeatedBumpsApproachOne(t *testing.T) {
	p := DefaultPolicy()
	score := 0.0
	for i := 0; i < 50; i++ {
		score = p.Bump(score)
	}
	if score >= 1 {
		t.Errorf("score must stay strictly below 1, got %f", score)
	}
	if score < 0.99 {
		t.Errorf("50 immediate bumps should push the score near 1, got %f", score)
	}
}

func TestTrendingIsStrictThreshold(t *testing.T) {
	p := Policy{HalfLife: time.Hour, Gain: 0.2, Threshold: 0.7}
	if p.Trending(0.7) {
		t.Error("score equal to threshold must not be trending")
	}
	if !p.Trending(0.70001) {
		t.Error("score above threshold must be trending")
	}
	if p.Trending(0.5) {
		t.Error("score below threshold must not be trending")
	}
}

func TestBumpAfterDecayCrossesThreshold(t *testing.T) {
	p := DefaultPolicy()
	// A keyword observed repeatedly in quick succession should trend,
	// then fall back below the threshold after a quiet day.
	score := 0.0
	for i := 0; i < 8; i++ {
		score = p.Bump(p.Decay(score, time.Minute))
	}
	if !p.Trending(score) {
		t.Fatalf("burst of observations should trend, score %f", score)
	}

	quiet := p.Decay(score, 24*time.Hour)
	if p.Trending(quiet) {
		t.Errorf("a day of silence should drop below the threshold, score %f", quiet)
	}
}
