package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsbite/internal/model"
)

const userColumns = `
	id, email, password_hash, full_name, is_active, is_verified, google_id,
	email_frequency, email_time_hour, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var frequency string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsActive,
		&u.IsVerified, &u.GoogleID, &frequency, &u.EmailTimeHour,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.EmailFrequency = model.EmailFrequency(frequency)
	return &u, nil
}

// Create inserts a user. Duplicate email or google_id resolves to exactly
// one winner; the loser gets ErrConstraintViolation.
func (r *UserRepository) Create(ctx context.Context, u *model.User) (string, error) {
	if !u.EmailFrequency.Valid() {
		return "", constraintViolation("unknown email_frequency %q", u.EmailFrequency)
	}

	query := `
		INSERT INTO users (email, password_hash, full_name, is_active, is_verified,
		                   google_id, email_frequency, email_time_hour)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		u.Email, u.PasswordHash, u.FullName, u.IsActive, u.IsVerified,
		u.GoogleID, string(u.EmailFrequency), u.EmailTimeHour,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.db.QueryRow(ctx, query, googleID))
}

// ListActive pages through users by activity flag, newest accounts first.
// Served by the (is_active, created_at DESC) index.
func (r *UserRepository) ListActive(ctx context.Context, active bool, limit, offset int) ([]*model.User, error) {
	query := `
		SELECT` + userColumns + `
		FROM users
		WHERE is_active = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, active, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListByCreation pages through all users regardless of activity, newest
// accounts first. Served by the created_at index.
func (r *UserRepository) ListByCreation(ctx context.Context, limit, offset int) ([]*model.User, error) {
	query := `
		SELECT` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetActive flips the activity flag.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1
	`, id, active)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetPreference loads the digest profile for a user. Missing preferences
// fall back to defaults (all categories, Korean, medium summaries).
func (r *UserRepository) GetPreference(ctx context.Context, userID string) (*model.UserPreference, error) {
	query := `
		SELECT id, user_id, preferred_categories, summary_length, language,
		       email_notification, created_at, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`
	var p model.UserPreference
	var categories []string
	var length string
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &categories, &length, &p.Language,
		&p.EmailNotification, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return &model.UserPreference{
			UserID:            userID,
			SummaryLength:     model.SummaryMedium,
			Language:          "ko",
			EmailNotification: true,
		}, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	p.SummaryLength = model.SummaryLength(length)
	for _, c := range categories {
		p.PreferredCategories = append(p.PreferredCategories, model.NewsCategory(c))
	}
	return &p, nil
}

// UpsertPreference writes the digest profile, one row per user.
func (r *UserRepository) UpsertPreference(ctx context.Context, p *model.UserPreference) error {
	if !p.SummaryLength.Valid() {
		return constraintViolation("unknown summary_length %q", p.SummaryLength)
	}
	categories := make([]string, 0, len(p.PreferredCategories))
	for _, c := range p.PreferredCategories {
		if !c.Valid() {
			return constraintViolation("unknown category %q", c)
		}
		categories = append(categories, string(c))
	}

	query := `
		INSERT INTO user_preferences (user_id, preferred_categories, summary_length, language, email_notification)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			preferred_categories = EXCLUDED.preferred_categories,
			summary_length = EXCLUDED.summary_length,
			language = EXCLUDED.language,
			email_notification = EXCLUDED.email_notification,
			updated_at = now()
	`
	_, err := r.db.Exec(ctx, query,
		p.UserID, categories, string(p.SummaryLength), p.Language, p.EmailNotification,
	)
	return mapError(err)
}
