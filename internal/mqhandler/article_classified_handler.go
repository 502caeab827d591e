package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"newsbite/internal/model"
	"newsbite/internal/repository"
	"newsbite/internal/service/ingest"
)

// ArticleClassifiedPayload is published by the classifier collaborator on
// news.article.classified.
type ArticleClassifiedPayload struct {
	ArticleID       string   `json:"article_id"`
	ImportanceScore float64  `json:"importance_score"`
	Status          string   `json:"status"`
	Sentiment       *string  `json:"sentiment,omitempty"`
	SentimentScore  *float64 `json:"sentiment_score,omitempty"`
	Summary         *string  `json:"summary,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	TraceID         string   `json:"trace_id,omitempty"`
}

type ArticleClassifiedHandler struct {
	ingestService *ingest.Service
	logger        *zap.Logger
}

func NewArticleClassifiedHandler(ingestService *ingest.Service, logger *zap.Logger) *ArticleClassifiedHandler {
	return &ArticleClassifiedHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

func (h *ArticleClassifiedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p ArticleClassifiedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal article classified payload",
			zap.Error(err),
		)
		return fmt.Errorf("json_unmarshal_error: %w", err)
	}
	ctx = withPayloadTrace(ctx, p.TraceID)

	var sentiment *model.SentimentType
	if p.Sentiment != nil {
		s := model.SentimentType(*p.Sentiment)
		sentiment = &s
	}

	err := h.ingestService.ApplyClassification(ctx, p.ArticleID, repository.Classification{
		ImportanceScore: p.ImportanceScore,
		Status:          model.NewsStatus(p.Status),
		Sentiment:       sentiment,
		SentimentScore:  p.SentimentScore,
		Summary:         p.Summary,
		Tags:            p.Tags,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// 目标文章不存在 → 跳过该条
			h.logger.Warn("Classified article not found, skipping",
				zap.String("article_id", p.ArticleID),
			)
			return nil
		}
		if errors.Is(err, repository.ErrConstraintViolation) {
			h.logger.Warn("Classification rejected by schema constraints, skipping",
				zap.String("article_id", p.ArticleID),
				zap.Error(err),
			)
			return nil
		}
		return err
	}
	return nil
}
