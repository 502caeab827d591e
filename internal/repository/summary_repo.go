package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsbite/internal/model"
	"newsbite/pkg/metrics"
)

const summaryColumns = `
	id, article_id, title, content, key_points, summary_type, model_name,
	model_version, confidence_score, language, created_at, updated_at`

type SummaryRepository struct {
	db *pgxpool.Pool
}

func NewSummaryRepository(db *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func scanSummary(row pgx.Row) (*model.NewsSummary, error) {
	var s model.NewsSummary
	var summaryType string
	err := row.Scan(
		&s.ID, &s.ArticleID, &s.Title, &s.Content, &s.KeyPoints, &summaryType,
		&s.ModelName, &s.ModelVersion, &s.ConfidenceScore, &s.Language,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.SummaryType = model.SummaryLength(summaryType)
	return &s, nil
}

// Create stores one summarizer run. A dangling article_id fails the foreign
// key and reports ErrConstraintViolation.
func (r *SummaryRepository) Create(ctx context.Context, s *model.NewsSummary) (string, error) {
	if !s.SummaryType.Valid() {
		return "", constraintViolation("unknown summary_type %q", s.SummaryType)
	}
	if s.ConfidenceScore != nil && (*s.ConfidenceScore < 0.0 || *s.ConfidenceScore > 1.0) {
		return "", constraintViolation("confidence_score %f out of [0,1]", *s.ConfidenceScore)
	}

	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "news_summaries", time.Since(start)) }()

	query := `
		INSERT INTO news_summaries
			(article_id, title, content, key_points, summary_type,
			 model_name, model_version, confidence_score, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		s.ArticleID, s.Title, s.Content, s.KeyPoints, string(s.SummaryType),
		s.ModelName, s.ModelVersion, s.ConfidenceScore, s.Language,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// ListByArticle returns all summaries stored for an article, newest first.
func (r *SummaryRepository) ListByArticle(ctx context.Context, articleID string) ([]*model.NewsSummary, error) {
	query := `
		SELECT` + summaryColumns + `
		FROM news_summaries
		WHERE article_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, articleID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var summaries []*model.NewsSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetLatest fetches the most recent summary of a length type and language
// for an article. pgx.ErrNoRows when none has been stored yet.
func (r *SummaryRepository) GetLatest(ctx context.Context, articleID string, summaryType model.SummaryLength, language string) (*model.NewsSummary, error) {
	query := `
		SELECT` + summaryColumns + `
		FROM news_summaries
		WHERE article_id = $1 AND summary_type = $2 AND language = $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	s, err := scanSummary(r.db.QueryRow(ctx, query, articleID, string(summaryType), language))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, mapError(err)
	}
	return s, nil
}
