package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsbite/internal/model"
)

const digestColumns = `
	id, user_id, digest_date, digest_type, subject, body, article_ids,
	total_articles, created_at, updated_at`

type DigestRepository struct {
	db *pgxpool.Pool
}

func NewDigestRepository(db *pgxpool.Pool) *DigestRepository {
	return &DigestRepository{db: db}
}

func scanDigest(row pgx.Row) (*model.EmailDigest, error) {
	var d model.EmailDigest
	var digestType string
	err := row.Scan(
		&d.ID, &d.UserID, &d.DigestDate, &digestType, &d.Subject, &d.Body,
		&d.ArticleIDs, &d.TotalArticles, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.DigestType = model.DigestType(digestType)
	return &d, nil
}

// Create persists a rendered digest. The (user_id, digest_date, digest_type)
// uniqueness is the idempotent-dispatch backstop: the loser of a concurrent
// create gets ErrConstraintViolation and must treat it as already dispatched.
func (r *DigestRepository) Create(ctx context.Context, d *model.EmailDigest) (string, error) {
	return r.create(ctx, r.db, d)
}

// CreateTx is Create running inside a caller-owned transaction, so the
// digest row and its delivery log commit or roll back together.
func (r *DigestRepository) CreateTx(ctx context.Context, tx pgx.Tx, d *model.EmailDigest) (string, error) {
	return r.create(ctx, tx, d)
}

func (r *DigestRepository) create(ctx context.Context, q rowQuerier, d *model.EmailDigest) (string, error) {
	if !d.DigestType.Valid() {
		return "", constraintViolation("unknown digest_type %q", d.DigestType)
	}

	query := `
		INSERT INTO email_digests (user_id, digest_date, digest_type, subject, body, article_ids, total_articles)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id string
	err := q.QueryRow(ctx, query,
		d.UserID, d.DigestDate, string(d.DigestType), d.Subject, d.Body,
		d.ArticleIDs, d.TotalArticles,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// Get fetches one digest by its dispatch key.
func (r *DigestRepository) Get(ctx context.Context, userID string, date time.Time, digestType model.DigestType) (*model.EmailDigest, error) {
	query := `
		SELECT` + digestColumns + `
		FROM email_digests
		WHERE user_id = $1 AND digest_date = $2 AND digest_type = $3
	`
	d, err := scanDigest(r.db.QueryRow(ctx, query, userID, date, string(digestType)))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// ListByDate pages digests for a date, optionally narrowed to a type.
// Served by the (digest_date DESC, digest_type) index.
func (r *DigestRepository) ListByDate(ctx context.Context, date time.Time, digestType *model.DigestType, limit, offset int) ([]*model.EmailDigest, error) {
	query := `
		SELECT` + digestColumns + `
		FROM email_digests
		WHERE digest_date = $1
		  AND ($2::text IS NULL OR digest_type = $2)
		ORDER BY digest_date DESC, digest_type
		LIMIT $3 OFFSET $4
	`
	var dt *string
	if digestType != nil {
		s := string(*digestType)
		dt = &s
	}
	rows, err := r.db.Query(ctx, query, date, dt, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var digests []*model.EmailDigest
	for rows.Next() {
		d, err := scanDigest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}
