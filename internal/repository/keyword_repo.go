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

const keywordColumns = `
	id, keyword, frequency, is_trending, trend_score, last_seen, score_at,
	created_at, updated_at`

type KeywordRepository struct {
	db *pgxpool.Pool
}

func NewKeywordRepository(db *pgxpool.Pool) *KeywordRepository {
	return &KeywordRepository{db: db}
}

func scanKeyword(row pgx.Row) (*model.NewsKeyword, error) {
	var k model.NewsKeyword
	err := row.Scan(
		&k.ID, &k.Keyword, &k.Frequency, &k.IsTrending, &k.TrendScore,
		&k.LastSeen, &k.ScoreAt, &k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// Observe applies a single keyword observation atomically: the frequency
// increment, score decay since score_at, gain bump and is_trending
// derivation all happen in one statement, so concurrent ingestion workers
// cannot lose updates. The score arithmetic mirrors trend.Policy exactly.
//
// First observation seeds the row with frequency=1 and trend_score=gain.
func (r *KeywordRepository) Observe(ctx context.Context, keyword string, gain, threshold float64, halfLife time.Duration) (*model.NewsKeyword, error) {
	keyword = model.NormalizeKeyword(keyword)
	if keyword == "" {
		return nil, constraintViolation("empty keyword")
	}

	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("upsert", "news_keywords", time.Since(start)) }()

	query := `
		INSERT INTO news_keywords (keyword, frequency, trend_score, is_trending, last_seen, score_at)
		VALUES ($1, 1, $2, $2 > $3, now(), now())
		ON CONFLICT (keyword) DO UPDATE SET
			frequency = news_keywords.frequency + 1,
			trend_score = $2 + (1 - $2) * (news_keywords.trend_score *
				exp(-ln(2.0) * EXTRACT(EPOCH FROM (now() - news_keywords.score_at)) / $4)),
			is_trending = ($2 + (1 - $2) * (news_keywords.trend_score *
				exp(-ln(2.0) * EXTRACT(EPOCH FROM (now() - news_keywords.score_at)) / $4))) > $3,
			last_seen = now(),
			score_at = now(),
			updated_at = now()
		RETURNING` + keywordColumns + `
	`
	k, err := scanKeyword(r.db.QueryRow(ctx, query, keyword, gain, threshold, halfLife.Seconds()))
	if err != nil {
		return nil, mapError(err)
	}
	return k, nil
}

// DecaySweep recomputes decayed scores for rows that have not been observed
// since score_at and re-derives is_trending. Anchoring on score_at makes the
// sweep idempotent: decaying twice over split intervals equals decaying once
// over the whole interval.
func (r *KeywordRepository) DecaySweep(ctx context.Context, threshold float64, halfLife time.Duration) (int64, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "news_keywords", time.Since(start)) }()

	query := `
		UPDATE news_keywords SET
			trend_score = trend_score *
				exp(-ln(2.0) * EXTRACT(EPOCH FROM (now() - score_at)) / $1),
			is_trending = (trend_score *
				exp(-ln(2.0) * EXTRACT(EPOCH FROM (now() - score_at)) / $1)) > $2,
			score_at = now(),
			updated_at = now()
		WHERE trend_score > 0.001
	`
	tag, err := r.db.Exec(ctx, query, halfLife.Seconds(), threshold)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// ResetFrequency is an explicit maintenance reset; frequency is otherwise
// monotonically non-decreasing.
func (r *KeywordRepository) ResetFrequency(ctx context.Context, keyword string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE news_keywords SET frequency = 0, updated_at = now() WHERE keyword = $1
	`, model.NormalizeKeyword(keyword))
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *KeywordRepository) GetByKeyword(ctx context.Context, keyword string) (*model.NewsKeyword, error) {
	query := `SELECT` + keywordColumns + ` FROM news_keywords WHERE keyword = $1`
	return scanKeyword(r.db.QueryRow(ctx, query, model.NormalizeKeyword(keyword)))
}

// ListTrending returns trending keywords by descending trend score.
// Served by the (is_trending, trend_score DESC) index.
func (r *KeywordRepository) ListTrending(ctx context.Context, limit, offset int) ([]*model.NewsKeyword, error) {
	query := `
		SELECT` + keywordColumns + `
		FROM news_keywords
		WHERE is_trending
		ORDER BY trend_score DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

// SearchFuzzy matches short keyword strings by trigram similarity and
// prefix, tolerating one-character typos. This is deliberately a separate
// operation from article full-text search.
func (r *KeywordRepository) SearchFuzzy(ctx context.Context, q string, limit int) ([]*model.NewsKeyword, error) {
	start := time.Now()
	defer func() { metrics.RecordSearchQueryDuration("fuzzy", time.Since(start)) }()

	q = model.NormalizeKeyword(q)
	query := `
		SELECT` + keywordColumns + `
		FROM news_keywords
		WHERE keyword % $1 OR keyword ILIKE $1 || '%'
		ORDER BY similarity(keyword, $1) DESC, frequency DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, q, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

func (r *KeywordRepository) collect(rows pgx.Rows) ([]*model.NewsKeyword, error) {
	defer rows.Close()
	var keywords []*model.NewsKeyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}
