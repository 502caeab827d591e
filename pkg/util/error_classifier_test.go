package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestIsRetryableNil(t *testing.T) {
	retryable, errType := IsRetryableError(nil)
	if retryable || errType != "" {
		t.Errorf("nil error: got (%v, %q)", retryable, errType)
	}
}

func TestJSONErrorsNotRetryable(t *testing.T) {
	var v struct{ N int }
	err := json.Unmarshal([]byte(`{"N": "oops"}`), &v)
	retryable, errType := IsRetryableError(err)
	if retryable || errType != "json_decode_error" {
		t.Errorf("json type error: got (%v, %q)", retryable, errType)
	}

	err = json.Unmarshal([]byte(`{broken`), &v)
	retryable, errType = IsRetryableError(err)
	if retryable || errType != "json_decode_error" {
		t.Errorf("json syntax error: got (%v, %q)", retryable, errType)
	}
}

func TestNoRowsNotRetryable(t *testing.T) {
	retryable, errType := IsRetryableError(pgx.ErrNoRows)
	if retryable || errType != "row_not_found" {
		t.Errorf("got (%v, %q)", retryable, errType)
	}
}

func TestConstraintViolationNotRetryable(t *testing.T) {
	err := fmt.Errorf("constraint violation: news_articles_url_key on news_articles")
	retryable, errType := IsRetryableError(err)
	if retryable || errType != "duplicate_key" {
		t.Errorf("got (%v, %q)", retryable, errType)
	}

	err = errors.New(`duplicate key value violates unique constraint "users_email_key"`)
	retryable, errType = IsRetryableError(err)
	if retryable || errType != "duplicate_key" {
		t.Errorf("got (%v, %q)", retryable, errType)
	}
}

func TestConnectionErrorsRetryable(t *testing.T) {
	err := errors.New("failed to establish connection to db")
	retryable, errType := IsRetryableError(err)
	if !retryable || errType != "db_connection_error" {
		t.Errorf("got (%v, %q)", retryable, errType)
	}
}

func TestContextErrors(t *testing.T) {
	retryable, errType := IsRetryableError(context.DeadlineExceeded)
	if !retryable || errType != "timeout" {
		t.Errorf("deadline: got (%v, %q)", retryable, errType)
	}
	retryable, errType = IsRetryableError(context.Canceled)
	if retryable || errType != "context_canceled" {
		t.Errorf("canceled: got (%v, %q)", retryable, errType)
	}
}

func TestUnknownErrorsDefaultToNoRetry(t *testing.T) {
	retryable, errType := IsRetryableError(errors.New("something odd"))
	if retryable || errType != "unknown_error" {
		t.Errorf("got (%v, %q)", retryable, errType)
	}
}

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(1, 3, false) {
		t.Error("non-retryable must never retry")
	}
	if !ShouldRetry(3, 3, true) {
		t.Error("at the limit should still retry")
	}
	if ShouldRetry(4, 3, true) {
		t.Error("beyond the limit must not retry")
	}
}
