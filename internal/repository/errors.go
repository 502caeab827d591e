package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error taxonomy of the storage layer. Callers branch with errors.Is;
// ConstraintViolation in particular must be treated as "already exists /
// re-check" by ingestion collaborators, never as a batch-fatal error.
var (
	ErrConstraintViolation = errors.New("constraint violation")
	ErrTemplateRender      = errors.New("template render error")
	ErrIndexInconsistency  = errors.New("search index inconsistency")
	ErrMigration           = errors.New("migration error")
)

// Postgres error codes enforced by the schema catalog.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError converts driver errors for constraint failures into the domain
// taxonomy; everything else passes through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
			return fmt.Errorf("%w: %s on %s", ErrConstraintViolation, pgErr.ConstraintName, pgErr.TableName)
		}
	}
	return err
}

// constraintViolation builds a taxonomy error for violations detected before
// the round trip (enum validation at the storage boundary).
func constraintViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstraintViolation, fmt.Sprintf(format, args...))
}
