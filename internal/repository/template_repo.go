package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsbite/internal/model"
)

const templateColumns = `
	id, name, email_type, subject_template, body_template, language,
	is_active, created_at, updated_at`

type TemplateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func scanTemplate(row pgx.Row) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	var emailType string
	err := row.Scan(
		&t.ID, &t.Name, &emailType, &t.SubjectTemplate, &t.BodyTemplate,
		&t.Language, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.EmailType = model.EmailType(emailType)
	return &t, nil
}

// Create inserts a template; (name, language) is unique so concurrent
// provisioning resolves to one winner.
func (r *TemplateRepository) Create(ctx context.Context, t *model.EmailTemplate) (string, error) {
	if !t.EmailType.Valid() {
		return "", constraintViolation("unknown email_type %q", t.EmailType)
	}

	query := `
		INSERT INTO email_templates (name, email_type, subject_template, body_template, language, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		t.Name, string(t.EmailType), t.SubjectTemplate, t.BodyTemplate,
		t.Language, t.IsActive,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// GetActive fetches the single active template for (name, language).
func (r *TemplateRepository) GetActive(ctx context.Context, name, language string) (*model.EmailTemplate, error) {
	query := `
		SELECT` + templateColumns + `
		FROM email_templates
		WHERE name = $1 AND language = $2 AND is_active
	`
	t, err := scanTemplate(r.db.QueryRow(ctx, query, name, language))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// Deactivate retires a template version without deleting it.
func (r *TemplateRepository) Deactivate(ctx context.Context, name, language string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE email_templates SET is_active = false, updated_at = now()
		WHERE name = $1 AND language = $2
	`, name, language)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
