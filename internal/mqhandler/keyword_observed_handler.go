package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"newsbite/internal/service/trend"
)

// KeywordObservedPayload is published by the classifier collaborator on
// news.keyword.observed, one message per keyword tagged on an article.
type KeywordObservedPayload struct {
	Keyword   string `json:"keyword"`
	ArticleID string `json:"article_id"`
	TraceID   string `json:"trace_id,omitempty"`
}

type KeywordObservedHandler struct {
	trendService *trend.Service
	logger       *zap.Logger
}

func NewKeywordObservedHandler(trendService *trend.Service, logger *zap.Logger) *KeywordObservedHandler {
	return &KeywordObservedHandler{
		trendService: trendService,
		logger:       logger,
	}
}

func (h *KeywordObservedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p KeywordObservedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal keyword observed payload",
			zap.Error(err),
		)
		return fmt.Errorf("json_unmarshal_error: %w", err)
	}
	ctx = withPayloadTrace(ctx, p.TraceID)

	_, err := h.trendService.Observe(ctx, p.Keyword, p.ArticleID)
	return err
}
