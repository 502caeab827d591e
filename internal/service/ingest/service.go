package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsbite/internal/model"
	"newsbite/internal/repository"
	"newsbite/pkg/logger"
	"newsbite/pkg/metrics"
)

// CrawledArticle is the crawler collaborator's payload.
type CrawledArticle struct {
	URL          string
	Title        string
	Content      string
	Source       string
	Author       *string
	Category     string
	PublishedAt  time.Time
	ThumbnailURL *string
}

type Service struct {
	articleRepo *repository.ArticleRepository
	logger      *zap.Logger
}

func NewService(articleRepo *repository.ArticleRepository, log *zap.Logger) *Service {
	return &Service{articleRepo: articleRepo, logger: log}
}

// CreateArticle stores a crawled article as a draft. A URL that is already
// stored reports ErrConstraintViolation; crawlers treat that as "already
// have it" and move to the next item, never aborting the batch.
func (s *Service) CreateArticle(ctx context.Context, in CrawledArticle) (string, error) {
	log := logger.WithTrace(ctx, s.logger)

	category, ok := model.ParseCategory(in.Category)
	if !ok {
		metrics.IncrementArticleIngested(in.Category, "failed")
		return "", fmt.Errorf("article %s: unknown category %q", in.URL, in.Category)
	}

	id, err := s.articleRepo.Create(ctx, &model.NewsArticle{
		URL:          in.URL,
		Title:        in.Title,
		Content:      in.Content,
		Source:       in.Source,
		Author:       in.Author,
		Category:     category,
		PublishedAt:  in.PublishedAt,
		CrawledAt:    time.Now().UTC(),
		Status:       model.StatusDraft,
		ThumbnailURL: in.ThumbnailURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			metrics.IncrementArticleIngested(string(category), "duplicate")
			log.Debug("Article already stored", zap.String("url", in.URL))
		} else {
			metrics.IncrementArticleIngested(string(category), "failed")
		}
		return "", err
	}

	metrics.IncrementArticleIngested(string(category), "created")
	log.Info("Article ingested",
		zap.String("article_id", id),
		zap.String("url", in.URL),
		zap.String("category", string(category)),
	)
	return id, nil
}

// ApplyClassification relays the classifier collaborator's verdict onto the
// stored article.
func (s *Service) ApplyClassification(ctx context.Context, articleID string, c repository.Classification) error {
	if err := s.articleRepo.ApplyClassification(ctx, articleID, c); err != nil {
		return fmt.Errorf("failed to classify article %s: %w", articleID, err)
	}

	logger.WithTrace(ctx, s.logger).Info("Article classified",
		zap.String("article_id", articleID),
		zap.String("status", string(c.Status)),
		zap.Float64("importance_score", c.ImportanceScore),
	)
	return nil
}
