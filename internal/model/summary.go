package model

import "time"

// NewsSummary is one AI-generated summary artifact for an article. An
// article can carry several (per length type, language and model run);
// summarization itself happens in the AI collaborator, this side only
// stores and serves the results.
type NewsSummary struct {
	ID              string
	ArticleID       string
	Title           string
	Content         string
	KeyPoints       []string
	SummaryType     SummaryLength
	ModelName       *string
	ModelVersion    *string
	ConfidenceScore *float64
	Language        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
