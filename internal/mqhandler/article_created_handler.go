package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsbite/internal/repository"
	"newsbite/internal/service/ingest"
)

// ArticleCreatedPayload is published by the crawler collaborator on
// news.article.created.
type ArticleCreatedPayload struct {
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Source       string    `json:"source"`
	Author       *string   `json:"author,omitempty"`
	Category     string    `json:"category"`
	PublishedAt  time.Time `json:"published_at"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	TraceID      string    `json:"trace_id,omitempty"`
}

type ArticleCreatedHandler struct {
	ingestService *ingest.Service
	logger        *zap.Logger
}

func NewArticleCreatedHandler(ingestService *ingest.Service, logger *zap.Logger) *ArticleCreatedHandler {
	return &ArticleCreatedHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// Handle stores one crawled article. Duplicate URLs are treated as already
// ingested and acked; only transient storage failures are surfaced for
// requeue.
func (h *ArticleCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p ArticleCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal article created payload",
			zap.Error(err),
		)
		return fmt.Errorf("json_unmarshal_error: %w", err)
	}
	ctx = withPayloadTrace(ctx, p.TraceID)

	_, err := h.ingestService.CreateArticle(ctx, ingest.CrawledArticle{
		URL:          p.URL,
		Title:        p.Title,
		Content:      p.Content,
		Source:       p.Source,
		Author:       p.Author,
		Category:     p.Category,
		PublishedAt:  p.PublishedAt,
		ThumbnailURL: p.ThumbnailURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			// 已存在 → 幂等跳过
			return nil
		}
		return err
	}
	return nil
}
