package migrate

import "context"

// Storage for the summarizer collaborator's artifacts. An article carries
// any number of summaries (per length type, language and model run); the
// newest row per (article, type, language) is the one served.
var rev0005Summaries = Revision{
	ID:           "0005",
	DownRevision: "0004",
	Label:        "article summaries",
	Up: func(ctx context.Context, ex Executor) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS news_summaries (
				id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				article_id       UUID NOT NULL REFERENCES news_articles(id) ON DELETE CASCADE,
				title            VARCHAR(300) NOT NULL,
				content          TEXT NOT NULL,
				key_points       TEXT[],
				summary_type     TEXT NOT NULL DEFAULT 'medium'
					CHECK (summary_type IN ('short', 'medium', 'long')),
				model_name       VARCHAR(100),
				model_version    VARCHAR(50),
				confidence_score DOUBLE PRECISION
					CHECK (confidence_score BETWEEN 0.0 AND 1.0),
				language         VARCHAR(10) NOT NULL DEFAULT 'ko',
				created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				CHECK (updated_at >= created_at)
			)`,
			// Table is created empty in the same transaction, a plain
			// index build takes no meaningful lock here.
			`CREATE INDEX IF NOT EXISTS idx_summaries_article_type_created
				ON news_summaries (article_id, summary_type, created_at DESC)`,
		}
		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	},
	Down: func(ctx context.Context, ex Executor) error {
		_, err := ex.Exec(ctx, `DROP TABLE IF EXISTS news_summaries`)
		return err
	},
}
