package trend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsbite/internal/model"
	"newsbite/internal/repository"
	"newsbite/pkg/metrics"
	"newsbite/pkg/util"
)

// Service owns all mutation of keyword frequency and trend state.
type Service struct {
	keywordRepo *repository.KeywordRepository
	deduper     *util.Deduper
	policy      Policy
	logger      *zap.Logger
}

func NewService(
	keywordRepo *repository.KeywordRepository,
	deduper *util.Deduper,
	policy Policy,
	logger *zap.Logger,
) *Service {
	return &Service{
		keywordRepo: keywordRepo,
		deduper:     deduper,
		policy:      policy,
		logger:      logger,
	}
}

// Observe records one (keyword, article) observation. Redeliveries of the
// same pair are dropped by the dedup guard and return (nil, nil): no keyword
// state, no error, nothing for the caller to act on. The frequency increment
// itself is a single atomic statement, so concurrent workers observing the
// same keyword cannot lose updates. When the increment fails the dedup key
// is released again, so a requeued redelivery is not mistaken for a
// duplicate of an observation that never landed.
func (s *Service) Observe(ctx context.Context, keyword, articleID string) (*model.NewsKeyword, error) {
	normalized := model.NormalizeKeyword(keyword)
	if normalized == "" {
		metrics.IncrementKeywordObserved("failed")
		return nil, fmt.Errorf("empty keyword for article %s", articleID)
	}

	dedupKey := normalized + ":" + articleID
	if !s.deduper.AcquireOnce(ctx, "keyword-observe", dedupKey) {
		metrics.IncrementKeywordObserved("duplicate")
		return nil, nil
	}

	k, err := s.keywordRepo.Observe(ctx, normalized, s.policy.Gain, s.policy.Threshold, s.policy.HalfLife)
	if err != nil {
		s.deduper.Release(ctx, "keyword-observe", dedupKey)
		metrics.IncrementKeywordObserved("failed")
		return nil, fmt.Errorf("failed to observe keyword %q: %w", normalized, err)
	}

	metrics.IncrementKeywordObserved("applied")
	s.logger.Debug("Keyword observed",
		zap.String("keyword", normalized),
		zap.Int("frequency", k.Frequency),
		zap.Float64("trend_score", k.TrendScore),
		zap.Bool("is_trending", k.IsTrending),
	)
	return k, nil
}

// Sweeper periodically re-applies decay so that scores of quiet keywords
// drift down and is_trending is cleared once they cross the threshold.
type Sweeper struct {
	keywordRepo *repository.KeywordRepository
	policy      Policy
	logger      *zap.Logger
	interval    time.Duration
}

func NewSweeper(keywordRepo *repository.KeywordRepository, policy Policy, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		keywordRepo: keywordRepo,
		policy:      policy,
		logger:      logger,
		interval:    10 * time.Minute,
	}
}

func (s *Sweeper) WithInterval(interval time.Duration) *Sweeper {
	s.interval = interval
	return s
}

// Start runs the sweep loop until the context is cancelled. Call in a
// goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting trend decay sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("half_life", s.policy.HalfLife),
		zap.Float64("threshold", s.policy.Threshold),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Trend decay sweeper stopped")
			return
		case <-ticker.C:
			swept, err := s.keywordRepo.DecaySweep(ctx, s.policy.Threshold, s.policy.HalfLife)
			if err != nil {
				s.logger.Error("Decay sweep failed", zap.Error(err))
				continue
			}
			if swept > 0 {
				s.logger.Debug("Decay sweep applied", zap.Int64("rows", swept))
			}
		}
	}
}
