package migrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"newsbite/internal/repository"
)

// Executor is the subset of pgx satisfied by both a pool and a transaction,
// so a revision body runs unchanged in either mode.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Revision is one reversible schema step. Down must be the structural
// inverse of Up: drop what Up created, restore what Up altered.
//
// NoTx revisions run outside a transaction; CREATE INDEX CONCURRENTLY
// refuses to run inside one, which is the price of not locking a live
// table for the duration of an index build. Their statements must be
// individually idempotent (IF NOT EXISTS / IF EXISTS).
type Revision struct {
	ID           string
	DownRevision string // "" marks the root of the chain
	Label        string
	NoTx         bool
	Up           func(ctx context.Context, ex Executor) error
	Down         func(ctx context.Context, ex Executor) error
}

type Engine struct {
	pool      *pgxpool.Pool
	logger    *zap.Logger
	revisions []Revision
}

func NewEngine(pool *pgxpool.Pool, logger *zap.Logger) (*Engine, error) {
	if err := Validate(Revisions); err != nil {
		return nil, err
	}
	return &Engine{pool: pool, logger: logger, revisions: Revisions}, nil
}

// Validate checks that the revision list forms a single linear chain:
// unique ids, each step naming its predecessor, one head.
func Validate(revisions []Revision) error {
	if len(revisions) == 0 {
		return fmt.Errorf("%w: empty revision chain", repository.ErrMigration)
	}
	seen := make(map[string]bool, len(revisions))
	for i, rev := range revisions {
		if rev.ID == "" {
			return fmt.Errorf("%w: revision %d has empty id", repository.ErrMigration, i)
		}
		if seen[rev.ID] {
			return fmt.Errorf("%w: duplicate revision id %s", repository.ErrMigration, rev.ID)
		}
		seen[rev.ID] = true
		if rev.Up == nil || rev.Down == nil {
			return fmt.Errorf("%w: revision %s must supply both up and down", repository.ErrMigration, rev.ID)
		}
		if i == 0 {
			if rev.DownRevision != "" {
				return fmt.Errorf("%w: root revision %s must have empty down_revision", repository.ErrMigration, rev.ID)
			}
			continue
		}
		if rev.DownRevision != revisions[i-1].ID {
			return fmt.Errorf("%w: revision %s names down_revision %q, expected %s",
				repository.ErrMigration, rev.ID, rev.DownRevision, revisions[i-1].ID)
		}
	}
	return nil
}

func (e *Engine) ensureRevisionTable(ctx context.Context) error {
	_, err := e.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_revisions (
			revision   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to ensure schema_revisions: %v", repository.ErrMigration, err)
	}
	return nil
}

func (e *Engine) appliedSet(ctx context.Context) (map[string]bool, error) {
	rows, err := e.pool.Query(ctx, `SELECT revision FROM schema_revisions`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read applied revisions: %v", repository.ErrMigration, err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan revision: %v", repository.ErrMigration, err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// Current returns the applied head revision id, or "" on a bare database.
// This is the schema version surface consumed by deployment tooling.
func (e *Engine) Current(ctx context.Context) (string, error) {
	if err := e.ensureRevisionTable(ctx); err != nil {
		return "", err
	}
	applied, err := e.appliedSet(ctx)
	if err != nil {
		return "", err
	}
	current := ""
	for _, rev := range e.revisions {
		if !applied[rev.ID] {
			break
		}
		current = rev.ID
	}
	return current, nil
}

// Upgrade applies pending revisions in chain order up to and including
// target ("" means head). Each transactional revision commits atomically:
// a failure rolls that revision back, leaves the schema at the last
// fully-committed revision and aborts with ErrMigration.
func (e *Engine) Upgrade(ctx context.Context, target string) error {
	if err := e.ensureRevisionTable(ctx); err != nil {
		return err
	}
	if target == "" {
		target = e.revisions[len(e.revisions)-1].ID
	}
	if !e.knownRevision(target) {
		return fmt.Errorf("%w: unknown target revision %s", repository.ErrMigration, target)
	}

	applied, err := e.appliedSet(ctx)
	if err != nil {
		return err
	}

	for _, rev := range e.revisions {
		if !applied[rev.ID] {
			if err := e.applyUp(ctx, rev); err != nil {
				return err
			}
		}
		if rev.ID == target {
			break
		}
	}
	return nil
}

func (e *Engine) applyUp(ctx context.Context, rev Revision) error {
	e.logger.Info("Applying revision",
		zap.String("revision", rev.ID),
		zap.String("label", rev.Label),
		zap.Bool("no_tx", rev.NoTx),
	)

	record := `INSERT INTO schema_revisions (revision) VALUES ($1)`

	if rev.NoTx {
		if err := rev.Up(ctx, e.pool); err != nil {
			return fmt.Errorf("%w: upgrade %s failed: %v", repository.ErrMigration, rev.ID, err)
		}
		if _, err := e.pool.Exec(ctx, record, rev.ID); err != nil {
			return fmt.Errorf("%w: failed to record revision %s: %v", repository.ErrMigration, rev.ID, err)
		}
		return nil
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin tx for %s: %v", repository.ErrMigration, rev.ID, err)
	}
	defer tx.Rollback(ctx)

	if err := rev.Up(ctx, tx); err != nil {
		return fmt.Errorf("%w: upgrade %s failed: %v", repository.ErrMigration, rev.ID, err)
	}
	if _, err := tx.Exec(ctx, record, rev.ID); err != nil {
		return fmt.Errorf("%w: failed to record revision %s: %v", repository.ErrMigration, rev.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit %s: %v", repository.ErrMigration, rev.ID, err)
	}
	return nil
}

// Downgrade rolls the schema back to target; "base" unwinds the whole
// chain. Revisions above the target run their Down action newest-first.
func (e *Engine) Downgrade(ctx context.Context, target string) error {
	if err := e.ensureRevisionTable(ctx); err != nil {
		return err
	}
	if target != "base" && !e.knownRevision(target) {
		return fmt.Errorf("%w: unknown target revision %s", repository.ErrMigration, target)
	}

	applied, err := e.appliedSet(ctx)
	if err != nil {
		return err
	}

	for i := len(e.revisions) - 1; i >= 0; i-- {
		rev := e.revisions[i]
		if rev.ID == target {
			break
		}
		if !applied[rev.ID] {
			continue
		}
		if err := e.applyDown(ctx, rev); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyDown(ctx context.Context, rev Revision) error {
	e.logger.Info("Reverting revision",
		zap.String("revision", rev.ID),
		zap.String("label", rev.Label),
	)

	record := `DELETE FROM schema_revisions WHERE revision = $1`

	if rev.NoTx {
		if err := rev.Down(ctx, e.pool); err != nil {
			return fmt.Errorf("%w: downgrade %s failed: %v", repository.ErrMigration, rev.ID, err)
		}
		if _, err := e.pool.Exec(ctx, record, rev.ID); err != nil {
			return fmt.Errorf("%w: failed to unrecord revision %s: %v", repository.ErrMigration, rev.ID, err)
		}
		return nil
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin tx for %s: %v", repository.ErrMigration, rev.ID, err)
	}
	defer tx.Rollback(ctx)

	if err := rev.Down(ctx, tx); err != nil {
		return fmt.Errorf("%w: downgrade %s failed: %v", repository.ErrMigration, rev.ID, err)
	}
	if _, err := tx.Exec(ctx, record, rev.ID); err != nil {
		return fmt.Errorf("%w: failed to unrecord revision %s: %v", repository.ErrMigration, rev.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit %s: %v", repository.ErrMigration, rev.ID, err)
	}
	return nil
}

func (e *Engine) knownRevision(id string) bool {
	for _, rev := range e.revisions {
		if rev.ID == id {
			return true
		}
	}
	return false
}

// History returns the revision chain in order, root first.
func (e *Engine) History() []Revision {
	return e.revisions
}
