package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsbite/internal/model"
)

const emailLogColumns = `
	id, user_id, recipient_email, email_type, subject, status, sent_at,
	bounce_reason, retry_count, last_error, created_at, updated_at`

type EmailLogRepository struct {
	db *pgxpool.Pool
}

func NewEmailLogRepository(db *pgxpool.Pool) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

func scanEmailLog(row pgx.Row) (*model.EmailLog, error) {
	var l model.EmailLog
	var emailType, status string
	err := row.Scan(
		&l.ID, &l.UserID, &l.RecipientEmail, &emailType, &l.Subject, &status,
		&l.SentAt, &l.BounceReason, &l.RetryCount, &l.LastError,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.EmailType = model.EmailType(emailType)
	l.Status = model.EmailStatus(status)
	return &l, nil
}

// Append adds a delivery record with status=queued. The log is append-only;
// only the delivery-report path mutates it afterwards.
func (r *EmailLogRepository) Append(ctx context.Context, l *model.EmailLog) (string, error) {
	return r.append(ctx, r.db, l)
}

// AppendTx is Append running inside a caller-owned transaction.
func (r *EmailLogRepository) AppendTx(ctx context.Context, tx pgx.Tx, l *model.EmailLog) (string, error) {
	return r.append(ctx, tx, l)
}

func (r *EmailLogRepository) append(ctx context.Context, q rowQuerier, l *model.EmailLog) (string, error) {
	if !l.EmailType.Valid() {
		return "", constraintViolation("unknown email_type %q", l.EmailType)
	}

	query := `
		INSERT INTO email_logs (user_id, recipient_email, email_type, subject, status)
		VALUES ($1, $2, $3, $4, 'queued')
		RETURNING id
	`
	var id string
	err := q.QueryRow(ctx, query,
		l.UserID, l.RecipientEmail, string(l.EmailType), l.Subject,
	).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// ReportDelivery records the transport outcome for a queued log entry.
func (r *EmailLogRepository) ReportDelivery(ctx context.Context, logID string, status model.EmailStatus, bounceReason, lastError *string) error {
	if !status.Valid() {
		return constraintViolation("unknown delivery status %q", status)
	}

	query := `
		UPDATE email_logs
		SET status = $2,
		    sent_at = CASE WHEN $2 = 'sent' THEN now() ELSE sent_at END,
		    bounce_reason = COALESCE($3, bounce_reason),
		    last_error = COALESCE($4, last_error),
		    retry_count = retry_count + CASE WHEN $2 = 'failed' THEN 1 ELSE 0 END,
		    updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, logID, string(status), bounceReason, lastError)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByRecipient pages delivery history for one address, newest first.
func (r *EmailLogRepository) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*model.EmailLog, error) {
	query := `
		SELECT` + emailLogColumns + `
		FROM email_logs
		WHERE recipient_email = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, recipient, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

// ListByStatus pages logs in a delivery state, newest first.
func (r *EmailLogRepository) ListByStatus(ctx context.Context, status model.EmailStatus, limit, offset int) ([]*model.EmailLog, error) {
	query := `
		SELECT` + emailLogColumns + `
		FROM email_logs
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

// ListByTypeSince pages logs of a type sent after the cutoff, most recently
// sent first. Served by the (email_type, sent_at DESC) index.
func (r *EmailLogRepository) ListByTypeSince(ctx context.Context, emailType model.EmailType, since time.Time, limit, offset int) ([]*model.EmailLog, error) {
	query := `
		SELECT` + emailLogColumns + `
		FROM email_logs
		WHERE email_type = $1 AND sent_at >= $2
		ORDER BY sent_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, string(emailType), since, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

func (r *EmailLogRepository) collect(rows pgx.Rows) ([]*model.EmailLog, error) {
	defer rows.Close()
	var logs []*model.EmailLog
	for rows.Next() {
		l, err := scanEmailLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
