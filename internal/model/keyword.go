package model

import (
	"strings"
	"time"
)

// NewsKeyword carries the trend state for one observed keyword.
// trend_score is bounded to [0,1] and is_trending is derived from it;
// both are owned exclusively by the trend service write path.
type NewsKeyword struct {
	ID         string
	Keyword    string
	Frequency  int
	IsTrending bool
	TrendScore float64
	LastSeen   time.Time
	ScoreAt    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalizeKeyword canonicalizes keyword text so that uniqueness holds per
// normalized form.
func NormalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
