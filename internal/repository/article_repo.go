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

const articleColumns = `
	id, url, title, content, summary, source, author, category, tags,
	published_at, crawled_at, status, sentiment, sentiment_score,
	importance_score, view_count, share_count, thumbnail_url,
	created_at, updated_at`

type ArticleRepository struct {
	db         *pgxpool.Pool
	textConfig string
}

func NewArticleRepository(db *pgxpool.Pool, textConfig string) *ArticleRepository {
	if textConfig == "" {
		textConfig = "simple"
	}
	return &ArticleRepository{db: db, textConfig: textConfig}
}

func scanArticle(row pgx.Row) (*model.NewsArticle, error) {
	var a model.NewsArticle
	var category, status string
	var sentiment *string
	err := row.Scan(
		&a.ID, &a.URL, &a.Title, &a.Content, &a.Summary, &a.Source, &a.Author,
		&category, &a.Tags, &a.PublishedAt, &a.CrawledAt, &status,
		&sentiment, &a.SentimentScore, &a.ImportanceScore,
		&a.ViewCount, &a.ShareCount, &a.ThumbnailURL,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Category = model.NewsCategory(category)
	a.Status = model.NewsStatus(status)
	if sentiment != nil {
		s := model.SentimentType(*sentiment)
		a.Sentiment = &s
	}
	return &a, nil
}

func (r *ArticleRepository) collect(rows pgx.Rows) ([]*model.NewsArticle, error) {
	defer rows.Close()
	var articles []*model.NewsArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Create inserts a crawled article. A duplicate URL yields
// ErrConstraintViolation and leaves the existing row untouched.
func (r *ArticleRepository) Create(ctx context.Context, a *model.NewsArticle) (string, error) {
	if !a.Category.Valid() {
		return "", constraintViolation("unknown category %q", a.Category)
	}
	if !a.Status.Valid() {
		return "", constraintViolation("unknown status %q", a.Status)
	}

	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "news_articles", time.Since(start)) }()

	query := `
		INSERT INTO news_articles
			(url, title, content, summary, source, author, category, tags,
			 published_at, crawled_at, status, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		a.URL, a.Title, a.Content, a.Summary, a.Source, a.Author,
		string(a.Category), a.Tags, a.PublishedAt, a.CrawledAt,
		string(a.Status), a.ThumbnailURL,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// Classification is the downstream classifier's update to an article.
type Classification struct {
	ImportanceScore float64
	Status          model.NewsStatus
	Sentiment       *model.SentimentType
	SentimentScore  *float64
	Summary         *string
	Tags            []string
}

// ApplyClassification mutates score/status fields owned by the classifier
// collaborator. Unknown enum values fail before the round trip.
func (r *ArticleRepository) ApplyClassification(ctx context.Context, articleID string, c Classification) error {
	if !c.Status.Valid() {
		return constraintViolation("unknown status %q", c.Status)
	}
	if c.Sentiment != nil && !c.Sentiment.Valid() {
		return constraintViolation("unknown sentiment %q", *c.Sentiment)
	}
	if c.ImportanceScore < 0.0 || c.ImportanceScore > 1.0 {
		return constraintViolation("importance_score %f out of [0,1]", c.ImportanceScore)
	}

	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "news_articles", time.Since(start)) }()

	query := `
		UPDATE news_articles
		SET importance_score = $2,
		    status = $3,
		    sentiment = $4,
		    sentiment_score = $5,
		    summary = COALESCE($6, summary),
		    tags = CASE WHEN $7::text[] IS NULL THEN tags ELSE $7 END,
		    updated_at = now()
		WHERE id = $1
	`
	var sentiment *string
	if c.Sentiment != nil {
		s := string(*c.Sentiment)
		sentiment = &s
	}
	tag, err := r.db.Exec(ctx, query,
		articleID, c.ImportanceScore, string(c.Status),
		sentiment, c.SentimentScore, c.Summary, c.Tags,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Archive retires an article without deleting it.
func (r *ArticleRepository) Archive(ctx context.Context, articleID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE news_articles SET status = 'archived', updated_at = now() WHERE id = $1
	`, articleID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*model.NewsArticle, error) {
	query := `SELECT` + articleColumns + ` FROM news_articles WHERE id = $1`
	return scanArticle(r.db.QueryRow(ctx, query, id))
}

func (r *ArticleRepository) GetByURL(ctx context.Context, url string) (*model.NewsArticle, error) {
	query := `SELECT` + articleColumns + ` FROM news_articles WHERE url = $1`
	return scanArticle(r.db.QueryRow(ctx, query, url))
}

// ListByCategory returns articles of a category, newest first.
// Served by the (category, published_at DESC) index.
func (r *ArticleRepository) ListByCategory(ctx context.Context, category model.NewsCategory, limit, offset int) ([]*model.NewsArticle, error) {
	query := `
		SELECT` + articleColumns + `
		FROM news_articles
		WHERE category = $1
		ORDER BY published_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, string(category), limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

// ListByStatus returns articles in a lifecycle state, newest first.
// Served by the (status, published_at DESC) index.
func (r *ArticleRepository) ListByStatus(ctx context.Context, status model.NewsStatus, limit, offset int) ([]*model.NewsArticle, error) {
	query := `
		SELECT` + articleColumns + `
		FROM news_articles
		WHERE status = $1
		ORDER BY published_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

// ListByImportance returns published articles ranked by importance score.
func (r *ArticleRepository) ListByImportance(ctx context.Context, limit, offset int) ([]*model.NewsArticle, error) {
	query := `
		SELECT` + articleColumns + `
		FROM news_articles
		WHERE status = 'published'
		ORDER BY importance_score DESC, published_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

// SearchFullText runs a relevance-ranked query against the generated
// search_tsv column. The column is regenerated inside the writing
// transaction, so results are never stale relative to committed rows.
func (r *ArticleRepository) SearchFullText(ctx context.Context, terms string, limit, offset int) ([]model.SearchResult, error) {
	start := time.Now()
	defer func() { metrics.RecordSearchQueryDuration("fulltext", time.Since(start)) }()

	query := `
		SELECT` + articleColumns + `,
			ts_rank(search_tsv, plainto_tsquery($1::regconfig, $2)) AS rank
		FROM news_articles
		WHERE search_tsv @@ plainto_tsquery($1::regconfig, $2)
		  AND status <> 'archived'
		ORDER BY rank DESC, published_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, r.textConfig, terms, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var results []model.SearchResult
	for rows.Next() {
		var a model.NewsArticle
		var category, status string
		var sentiment *string
		var rank float64
		err := rows.Scan(
			&a.ID, &a.URL, &a.Title, &a.Content, &a.Summary, &a.Source, &a.Author,
			&category, &a.Tags, &a.PublishedAt, &a.CrawledAt, &status,
			&sentiment, &a.SentimentScore, &a.ImportanceScore,
			&a.ViewCount, &a.ShareCount, &a.ThumbnailURL,
			&a.CreatedAt, &a.UpdatedAt, &rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		a.Category = model.NewsCategory(category)
		a.Status = model.NewsStatus(status)
		if sentiment != nil {
			s := model.SentimentType(*sentiment)
			a.Sentiment = &s
		}
		results = append(results, model.SearchResult{Article: a, Rank: rank})
	}
	return results, rows.Err()
}

// VerifySearchVector checks one article's stored search vector against its
// source text. A mismatch is repaired in place (the generated column is
// recomputed by the update) and reported as ErrIndexInconsistency so the
// caller knows a stale vector was served inside the staleness window.
func (r *ArticleRepository) VerifySearchVector(ctx context.Context, articleID string) error {
	var consistent bool
	err := r.db.QueryRow(ctx, `
		SELECT search_tsv = to_tsvector($2::regconfig, title || ' ' || content)
		FROM news_articles
		WHERE id = $1
	`, articleID, r.textConfig).Scan(&consistent)
	if err != nil {
		return mapError(err)
	}
	if consistent {
		return nil
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE news_articles SET updated_at = now() WHERE id = $1
	`, articleID); err != nil {
		return fmt.Errorf("%w: repair failed: %v", ErrIndexInconsistency, err)
	}
	return fmt.Errorf("%w: article %s regenerated", ErrIndexInconsistency, articleID)
}

// ListDigestCandidates selects published articles inside the window, ranked
// by preferred-category match first and importance second.
// Empty preferences match every category.
func (r *ArticleRepository) ListDigestCandidates(ctx context.Context, categories []model.NewsCategory, from, to time.Time, limit int) ([]*model.NewsArticle, error) {
	prefs := make([]string, 0, len(categories))
	for _, c := range categories {
		prefs = append(prefs, string(c))
	}

	query := `
		SELECT` + articleColumns + `
		FROM news_articles
		WHERE status = 'published'
		  AND published_at >= $1
		  AND published_at < $2
		  AND (cardinality($3::text[]) = 0 OR category = ANY($3))
		ORDER BY
			CASE WHEN category = ANY($3) THEN 1 ELSE 0 END DESC,
			importance_score DESC,
			published_at DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, from, to, prefs, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}
