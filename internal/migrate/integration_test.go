package migrate_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"newsbite/internal/migrate"
)

func testEngine(t *testing.T) (*migrate.Engine, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("NEWSBITE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("NEWSBITE_TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	engine, err := migrate.NewEngine(pool, zap.NewNop())
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	return engine, pool
}

func TestUpgradeIsIdempotent(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	if err := engine.Upgrade(ctx, ""); err != nil {
		t.Fatalf("first upgrade failed: %v", err)
	}
	if err := engine.Upgrade(ctx, ""); err != nil {
		t.Fatalf("re-running upgrade at head failed: %v", err)
	}

	current, err := engine.Current(ctx)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	head := engine.History()[len(engine.History())-1].ID
	if current != head {
		t.Errorf("current = %q, want head %q", current, head)
	}
}

func TestDowngradeRoundTrip(t *testing.T) {
	engine, pool := testEngine(t)
	ctx := context.Background()

	if err := engine.Upgrade(ctx, ""); err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}

	// Step down past the seed and search revisions, then recover.
	if err := engine.Downgrade(ctx, "0002"); err != nil {
		t.Fatalf("downgrade failed: %v", err)
	}
	current, err := engine.Current(ctx)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != "0002" {
		t.Fatalf("current = %q after downgrade, want 0002", current)
	}

	var hasSearchIdx bool
	err = pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_articles_search_tsv')
	`).Scan(&hasSearchIdx)
	if err != nil {
		t.Fatalf("index lookup failed: %v", err)
	}
	if hasSearchIdx {
		t.Error("search index should be gone below revision 0003")
	}

	if err := engine.Upgrade(ctx, ""); err != nil {
		t.Fatalf("re-upgrade failed: %v", err)
	}

	// Seed rows survive the round trip re-seed.
	var templates int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM email_templates
		WHERE name IN ('daily_digest_ko', 'weekly_digest_ko', 'welcome_ko', 'verification_ko')
	`).Scan(&templates)
	if err != nil {
		t.Fatalf("template count failed: %v", err)
	}
	if templates != 4 {
		t.Errorf("seeded templates = %d, want 4", templates)
	}
}

func TestUnknownTargetRejected(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	if err := engine.Upgrade(ctx, "9999"); err == nil {
		t.Error("upgrade to unknown revision must fail")
	}
	if err := engine.Downgrade(ctx, "9999"); err == nil {
		t.Error("downgrade to unknown revision must fail")
	}
}
