package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapErrorNil(t *testing.T) {
	if got := mapError(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestMapErrorConstraintCodes(t *testing.T) {
	for _, code := range []string{"23505", "23503", "23514"} {
		pgErr := &pgconn.PgError{Code: code, ConstraintName: "news_articles_url_key", TableName: "news_articles"}
		got := mapError(pgErr)
		if !errors.Is(got, ErrConstraintViolation) {
			t.Errorf("code %s: expected ErrConstraintViolation, got %v", code, got)
		}
	}
}

func TestMapErrorWrappedPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", TableName: "users"}
	wrapped := fmt.Errorf("insert failed: %w", pgErr)
	if got := mapError(wrapped); !errors.Is(got, ErrConstraintViolation) {
		t.Errorf("wrapped pg error not mapped: %v", got)
	}
}

func TestMapErrorPassesThroughOtherCodes(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	got := mapError(pgErr)
	if errors.Is(got, ErrConstraintViolation) {
		t.Errorf("non-constraint code must not map to ErrConstraintViolation")
	}
	if !errors.As(got, &pgErr) {
		t.Errorf("original error lost: %v", got)
	}
}

func TestMapErrorPassesThroughPlainErrors(t *testing.T) {
	plain := errors.New("connection refused")
	if got := mapError(plain); got != plain {
		t.Errorf("plain error must pass through unchanged, got %v", got)
	}
}

func TestConstraintViolationHelper(t *testing.T) {
	err := constraintViolation("unknown category %q", "weather")
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	if want := `unknown category "weather"`; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should contain %q", err.Error(), want)
	}
}
