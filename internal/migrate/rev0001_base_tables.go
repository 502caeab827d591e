package migrate

import "context"

// Base relational catalog: users and their digest preferences, the
// article store with its generated search vector, the keyword trend
// table, and the email side (templates, logs, digests).
//
// updated_at carries no trigger; every UPDATE in the access layer sets
// it explicitly. The updated_at >= created_at check catches a write
// path that forgets the column.
var rev0001BaseTables = Revision{
	ID:           "0001",
	DownRevision: "",
	Label:        "base tables",
	Up: func(ctx context.Context, ex Executor) error {
		stmts := []string{
			`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

			`CREATE TABLE IF NOT EXISTS users (
				id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				email           VARCHAR(255) NOT NULL UNIQUE,
				password_hash   VARCHAR(255),
				full_name       VARCHAR(100) NOT NULL,
				is_active       BOOLEAN NOT NULL DEFAULT true,
				is_verified     BOOLEAN NOT NULL DEFAULT false,
				google_id       VARCHAR(255) UNIQUE,
				email_frequency TEXT NOT NULL DEFAULT 'daily'
					CHECK (email_frequency IN ('daily', 'weekly', 'monthly', 'disabled')),
				email_time_hour INTEGER NOT NULL DEFAULT 8
					CHECK (email_time_hour BETWEEN 0 AND 23),
				created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
				CHECK (updated_at >= created_at)
			)`,

			`CREATE TABLE IF NOT EXISTS user_preferences (
				id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id              UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
				preferred_categories TEXT[] NOT NULL DEFAULT '{}',
				summary_length       TEXT NOT NULL DEFAULT 'medium'
					CHECK (summary_length IN ('short', 'medium', 'long')),
				language             VARCHAR(10) NOT NULL DEFAULT 'ko',
				email_notification   BOOLEAN NOT NULL DEFAULT true,
				created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
				CHECK (updated_at >= created_at)
			)`,

			`CREATE TABLE IF NOT EXISTS news_articles (
				id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				url              VARCHAR(1000) NOT NULL UNIQUE,
				title            VARCHAR(500) NOT NULL,
				content          TEXT NOT NULL,
				summary          TEXT,
				source           VARCHAR(100) NOT NULL,
				author           VARCHAR(100),
				category         TEXT NOT NULL
					CHECK (category IN ('politics', 'economy', 'society', 'culture',
						'international', 'sports', 'entertainment', 'it', 'health', 'education')),
				tags             TEXT[] NOT NULL DEFAULT '{}',
				published_at     TIMESTAMPTZ NOT NULL,
				crawled_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				status           TEXT NOT NULL DEFAULT 'draft'
					CHECK (status IN ('draft', 'published', 'archived')),
				sentiment        TEXT
					CHECK (sentiment IN ('positive', 'negative', 'neutral')),
				sentiment_score  DOUBLE PRECISION
					CHECK (sentiment_score BETWEEN -1.0 AND 1.0),
				importance_score DOUBLE PRECISION NOT NULL DEFAULT 0.0
					CHECK (importance_score BETWEEN 0.0 AND 1.0),
				view_count       INTEGER NOT NULL DEFAULT 0 CHECK (view_count >= 0),
				share_count      INTEGER NOT NULL DEFAULT 0 CHECK (share_count >= 0),
				thumbnail_url    VARCHAR(1000),
				search_tsv       tsvector GENERATED ALWAYS AS
					(to_tsvector('simple'::regconfig, title || ' ' || content)) STORED,
				created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				CHECK (updated_at >= created_at)
			)`,

			`CREATE TABLE IF NOT EXISTS news_keywords (
				id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				keyword     VARCHAR(100) NOT NULL UNIQUE,
				frequency   INTEGER NOT NULL DEFAULT 1 CHECK (frequency >= 0),
				is_trending BOOLEAN NOT NULL DEFAULT false,
				trend_score DOUBLE PRECISION NOT NULL DEFAULT 0.0
					CHECK (trend_score BETWEEN 0.0 AND 1.0),
				last_seen   TIMESTAMPTZ NOT NULL DEFAULT now(),
				score_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
				created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
				CHECK (updated_at >= created_at)
			)`,

			`CREATE TABLE IF NOT EXISTS email_templates (
				id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name             VARCHAR(100) NOT NULL,
				email_type       TEXT NOT NULL
					CHECK (email_type IN ('daily_digest', 'weekly_digest', 'breaking_news',
						'welcome', 'verification', 'password_reset', 'notification')),
				subject_template VARCHAR(500) NOT NULL,
				body_template    TEXT NOT NULL,
				language         VARCHAR(10) NOT NULL DEFAULT 'ko',
				is_active        BOOLEAN NOT NULL DEFAULT true,
				created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (name, language),
				CHECK (updated_at >= created_at)
			)`,

			`CREATE TABLE IF NOT EXISTS email_logs (
				id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id         UUID REFERENCES users(id) ON DELETE SET NULL,
				recipient_email VARCHAR(255) NOT NULL,
				email_type      TEXT NOT NULL
					CHECK (email_type IN ('daily_digest', 'weekly_digest', 'breaking_news',
						'welcome', 'verification', 'password_reset', 'notification')),
				subject         VARCHAR(500) NOT NULL,
				status          TEXT NOT NULL DEFAULT 'queued'
					CHECK (status IN ('queued', 'sent', 'failed', 'bounced')),
				sent_at         TIMESTAMPTZ,
				bounce_reason   TEXT,
				retry_count     INTEGER NOT NULL DEFAULT 0 CHECK (retry_count >= 0),
				last_error      TEXT,
				created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
				CHECK (updated_at >= created_at)
			)`,

			`CREATE TABLE IF NOT EXISTS email_digests (
				id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id        UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				digest_date    DATE NOT NULL,
				digest_type    TEXT NOT NULL
					CHECK (digest_type IN ('daily', 'weekly')),
				subject        VARCHAR(500) NOT NULL,
				body           TEXT NOT NULL,
				article_ids    UUID[] NOT NULL DEFAULT '{}',
				total_articles INTEGER NOT NULL DEFAULT 0 CHECK (total_articles >= 0),
				created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (user_id, digest_date, digest_type),
				CHECK (updated_at >= created_at)
			)`,
		}
		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	},
	// pgcrypto stays installed on downgrade, same reasoning as pg_trgm in
	// 0003: extensions are database-wide, other schemas may rely on them.
	Down: func(ctx context.Context, ex Executor) error {
		stmts := []string{
			`DROP TABLE IF EXISTS email_digests`,
			`DROP TABLE IF EXISTS email_logs`,
			`DROP TABLE IF EXISTS email_templates`,
			`DROP TABLE IF EXISTS news_keywords`,
			`DROP TABLE IF EXISTS news_articles`,
			`DROP TABLE IF EXISTS user_preferences`,
			`DROP TABLE IF EXISTS users`,
		}
		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	},
}
