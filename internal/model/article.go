package model

import "time"

// NewsCategory is the closed category domain. Canonical values are English;
// crawler payloads may carry the Korean section names, see ParseCategory.
type NewsCategory string

const (
	CategoryPolitics      NewsCategory = "politics"
	CategoryEconomy       NewsCategory = "economy"
	CategorySociety       NewsCategory = "society"
	CategoryCulture       NewsCategory = "culture"
	CategoryInternational NewsCategory = "international"
	CategorySports        NewsCategory = "sports"
	CategoryEntertainment NewsCategory = "entertainment"
	CategoryIT            NewsCategory = "it"
	CategoryHealth        NewsCategory = "health"
	CategoryEducation     NewsCategory = "education"
)

var koreanCategoryNames = map[string]NewsCategory{
	"정치":    CategoryPolitics,
	"경제":    CategoryEconomy,
	"사회":    CategorySociety,
	"문화":    CategoryCulture,
	"국제":    CategoryInternational,
	"스포츠":   CategorySports,
	"연예":    CategoryEntertainment,
	"IT/과학": CategoryIT,
	"건강":    CategoryHealth,
	"교육":    CategoryEducation,
}

// ParseCategory resolves a crawler-supplied category (English canonical or
// Korean section name) to its canonical value. ok is false for unknown input.
func ParseCategory(s string) (NewsCategory, bool) {
	if c, ok := koreanCategoryNames[s]; ok {
		return c, true
	}
	c := NewsCategory(s)
	if c.Valid() {
		return c, true
	}
	return "", false
}

func (c NewsCategory) Valid() bool {
	switch c {
	case CategoryPolitics, CategoryEconomy, CategorySociety, CategoryCulture,
		CategoryInternational, CategorySports, CategoryEntertainment,
		CategoryIT, CategoryHealth, CategoryEducation:
		return true
	}
	return false
}

// NewsStatus is the article lifecycle state. Articles are never deleted,
// only archived.
type NewsStatus string

const (
	StatusDraft     NewsStatus = "draft"
	StatusPublished NewsStatus = "published"
	StatusArchived  NewsStatus = "archived"
)

func (s NewsStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type SentimentType string

const (
	SentimentPositive SentimentType = "positive"
	SentimentNegative SentimentType = "negative"
	SentimentNeutral  SentimentType = "neutral"
)

func (s SentimentType) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

type NewsArticle struct {
	ID              string
	URL             string
	Title           string
	Content         string
	Summary         *string
	Source          string
	Author          *string
	Category        NewsCategory
	Tags            []string
	PublishedAt     time.Time
	CrawledAt       time.Time
	Status          NewsStatus
	Sentiment       *SentimentType
	SentimentScore  *float64
	ImportanceScore float64
	ViewCount       int
	ShareCount      int
	ThumbnailURL    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SearchResult is an article hit from the full-text index with its
// relevance rank.
type SearchResult struct {
	Article NewsArticle
	Rank    float64
}
