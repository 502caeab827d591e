package migrate

import "context"

// Composite indexes backing the hot list queries: equality columns
// first, the sort column last, so the planner can walk the index in
// output order. Built CONCURRENTLY to stay online on a populated store.
var rev0002AccessPaths = Revision{
	ID:           "0002",
	DownRevision: "0001",
	Label:        "access path indexes",
	NoTx:         true,
	Up: func(ctx context.Context, ex Executor) error {
		stmts := []string{
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_articles_category_published
				ON news_articles (category, published_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_articles_status_published
				ON news_articles (status, published_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_articles_status_importance
				ON news_articles (status, importance_score DESC, published_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_keywords_trending_score
				ON news_keywords (is_trending, trend_score DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_keywords_last_seen
				ON news_keywords (last_seen DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_users_active_created
				ON users (is_active, created_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_users_created
				ON users (created_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_email_logs_recipient_created
				ON email_logs (recipient_email, created_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_email_logs_status_created
				ON email_logs (status, created_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_email_logs_type_sent
				ON email_logs (email_type, sent_at DESC)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_email_digests_date_type
				ON email_digests (digest_date DESC, digest_type)`,
		}
		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	},
	Down: func(ctx context.Context, ex Executor) error {
		stmts := []string{
			`DROP INDEX CONCURRENTLY IF EXISTS idx_email_digests_date_type`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_email_logs_type_sent`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_email_logs_status_created`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_email_logs_recipient_created`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_users_created`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_users_active_created`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_keywords_last_seen`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_keywords_trending_score`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_articles_status_importance`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_articles_status_published`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_articles_category_published`,
		}
		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	},
}
