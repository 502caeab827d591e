package migrate

import "context"

// Text search plumbing: a GIN index over the stored tsvector for ranked
// full-text queries, and pg_trgm trigram indexes for fuzzy keyword and
// prefix matching. Korean text survives the 'simple' configuration
// because trigram similarity works on raw characters, not stemmed
// lexemes.
var rev0003SearchIndexes = Revision{
	ID:           "0003",
	DownRevision: "0002",
	Label:        "full-text and trigram search indexes",
	NoTx:         true,
	Up: func(ctx context.Context, ex Executor) error {
		stmts := []string{
			`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_articles_search_tsv
				ON news_articles USING GIN (search_tsv)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_articles_title_trgm
				ON news_articles USING GIN (title gin_trgm_ops)`,
			`CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_keywords_keyword_trgm
				ON news_keywords USING GIN (keyword gin_trgm_ops)`,
		}
		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	},
	// pg_trgm stays installed on downgrade: extensions are database-wide
	// and may back objects outside this chain, so dropping one here could
	// break a neighbour. Undoing this revision means undoing its indexes.
	Down: func(ctx context.Context, ex Executor) error {
		stmts := []string{
			`DROP INDEX CONCURRENTLY IF EXISTS idx_keywords_keyword_trgm`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_articles_title_trgm`,
			`DROP INDEX CONCURRENTLY IF EXISTS idx_articles_search_tsv`,
		}
		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	},
}
