package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// rowQuerier is the slice of pgx shared by *pgxpool.Pool and pgx.Tx. Write
// paths that must be composable into a caller-owned transaction take it
// instead of the pool.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
