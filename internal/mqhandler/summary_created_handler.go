package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"newsbite/internal/model"
	"newsbite/internal/repository"
)

// SummaryCreatedPayload is published by the summarizer collaborator on
// news.summary.created, one message per finished summarization run.
type SummaryCreatedPayload struct {
	ArticleID       string   `json:"article_id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	KeyPoints       []string `json:"key_points,omitempty"`
	SummaryType     string   `json:"summary_type"`
	ModelName       *string  `json:"model_name,omitempty"`
	ModelVersion    *string  `json:"model_version,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	Language        string   `json:"language"`
	TraceID         string   `json:"trace_id,omitempty"`
}

type SummaryCreatedHandler struct {
	summaryRepo *repository.SummaryRepository
	logger      *zap.Logger
}

func NewSummaryCreatedHandler(summaryRepo *repository.SummaryRepository, logger *zap.Logger) *SummaryCreatedHandler {
	return &SummaryCreatedHandler{
		summaryRepo: summaryRepo,
		logger:      logger,
	}
}

// Handle stores one summarizer result. A summary for an article that was
// deleted in the meantime fails the foreign key and is skipped.
func (h *SummaryCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p SummaryCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal summary created payload",
			zap.Error(err),
		)
		return fmt.Errorf("json_unmarshal_error: %w", err)
	}
	ctx = withPayloadTrace(ctx, p.TraceID)

	language := p.Language
	if language == "" {
		language = "ko"
	}

	id, err := h.summaryRepo.Create(ctx, &model.NewsSummary{
		ArticleID:       p.ArticleID,
		Title:           p.Title,
		Content:         p.Content,
		KeyPoints:       p.KeyPoints,
		SummaryType:     model.SummaryLength(p.SummaryType),
		ModelName:       p.ModelName,
		ModelVersion:    p.ModelVersion,
		ConfidenceScore: p.ConfidenceScore,
		Language:        language,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			h.logger.Warn("Summary rejected by schema constraints, skipping",
				zap.String("article_id", p.ArticleID),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	h.logger.Info("Summary stored",
		zap.String("summary_id", id),
		zap.String("article_id", p.ArticleID),
		zap.String("summary_type", p.SummaryType),
	)
	return nil
}
