package trend_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"newsbite/internal/migrate"
	"newsbite/internal/repository"
	"newsbite/internal/service/trend"
	"newsbite/pkg/util"
)

// testService wires a Service against the database and redis named by
// NEWSBITE_TEST_DATABASE_URL and NEWSBITE_TEST_REDIS_ADDR. Skipped when
// either is unset.
func testService(t *testing.T) *trend.Service {
	t.Helper()
	dbURL := os.Getenv("NEWSBITE_TEST_DATABASE_URL")
	redisAddr := os.Getenv("NEWSBITE_TEST_REDIS_ADDR")
	if dbURL == "" || redisAddr == "" {
		t.Skip("NEWSBITE_TEST_DATABASE_URL or NEWSBITE_TEST_REDIS_ADDR not set")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	engine, err := migrate.NewEngine(pool, zap.NewNop())
	if err != nil {
		t.Fatalf("revision chain invalid: %v", err)
	}
	if err := engine.Upgrade(context.Background(), ""); err != nil {
		t.Fatalf("schema upgrade failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { rdb.Close() })

	policy := trend.Policy{HalfLife: 6 * time.Hour, Gain: 0.2, Threshold: 0.7}
	deduper := util.NewDeduper(rdb, time.Minute, zap.NewNop())
	return trend.NewService(repository.NewKeywordRepository(pool), deduper, policy, zap.NewNop())
}

func TestObserveDropsRedelivery(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	keyword := fmt.Sprintf("kw%d", time.Now().UnixNano())
	articleID := "article-1"

	k, err := svc.Observe(ctx, keyword, articleID)
	if err != nil {
		t.Fatalf("observe failed: %v", err)
	}
	if k == nil {
		t.Fatal("first observation must return keyword state")
	}

	k, err = svc.Observe(ctx, keyword, articleID)
	if err != nil {
		t.Fatalf("redelivered observe errored: %v", err)
	}
	if k != nil {
		t.Error("redelivery of the same pair must be dropped as a duplicate")
	}

	got, err := svc.Observe(ctx, keyword, "article-2")
	if err != nil {
		t.Fatalf("observe from second article failed: %v", err)
	}
	if got == nil || got.Frequency != 2 {
		t.Errorf("distinct article must count: %+v", got)
	}
}

func TestFailedObserveIsRetryable(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	// Longer than the keyword column allows, so the upsert fails after the
	// dedup key has been taken.
	oversized := strings.Repeat("가", 101) + fmt.Sprintf("%d", time.Now().UnixNano())
	articleID := "article-1"

	if _, err := svc.Observe(ctx, oversized, articleID); err == nil {
		t.Fatal("oversized keyword must fail the upsert")
	}

	// The redelivery must hit the store again instead of being swallowed
	// as a duplicate of an observation that never landed.
	k, err := svc.Observe(ctx, oversized, articleID)
	if err == nil {
		t.Fatal("redelivered oversized keyword must fail again, not be dropped")
	}
	if k != nil {
		t.Errorf("failed observation returned state: %+v", k)
	}
}
