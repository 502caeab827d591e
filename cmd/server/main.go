package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"newsbite/config"
	"newsbite/internal/httpserver"
	"newsbite/internal/migrate"
	"newsbite/internal/mqhandler"
	"newsbite/internal/repository"
	"newsbite/internal/service/digest"
	"newsbite/internal/service/ingest"
	"newsbite/internal/service/trend"
	"newsbite/pkg/db"
	"newsbite/pkg/logger"
	"newsbite/pkg/mq"
	"newsbite/pkg/redis"
	"newsbite/pkg/util"
)

func main() {
	cfg := config.Load()
	logger := logger.NewLogger()
	defer logger.Sync()

	logger.Info("Starting newsbite storage service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour, logger)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Schema must be at head before serving; a provisioning failure here
	// is fatal rather than a degraded start.
	engine, err := migrate.NewEngine(dbConn, logger)
	if err != nil {
		logger.Fatal("Revision chain invalid", zap.Error(err))
	}
	if err := engine.Upgrade(ctx, ""); err != nil {
		logger.Fatal("Schema upgrade failed", zap.Error(err))
	}
	logger.Info("DB ready")

	// repositories
	articleRepo := repository.NewArticleRepository(dbConn, cfg.Search.TextConfig)
	keywordRepo := repository.NewKeywordRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)
	templateRepo := repository.NewTemplateRepository(dbConn)
	emailLogRepo := repository.NewEmailLogRepository(dbConn)
	digestRepo := repository.NewDigestRepository(dbConn)
	summaryRepo := repository.NewSummaryRepository(dbConn)

	// services
	policy := trend.Policy{
		HalfLife:  time.Duration(cfg.Trend.HalfLifeMinutes) * time.Minute,
		Gain:      cfg.Trend.Gain,
		Threshold: cfg.Trend.Threshold,
	}
	trendService := trend.NewService(keywordRepo, deduper, policy, logger)
	ingestService := ingest.NewService(articleRepo, logger)
	digestService := digest.NewService(
		dbConn, articleRepo, userRepo, templateRepo, digestRepo, emailLogRepo,
		cfg.Digest.MaxArticles, logger,
	)

	// publisher for rendered digests handed to the mail transport
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Publisher init failed", zap.Error(err))
	}
	defer publisher.Close()

	// handlers
	articleCreatedHandler := mqhandler.NewArticleCreatedHandler(ingestService, logger)
	articleClassifiedHandler := mqhandler.NewArticleClassifiedHandler(ingestService, logger)
	keywordObservedHandler := mqhandler.NewKeywordObservedHandler(trendService, logger)
	deliveryReportedHandler := mqhandler.NewDeliveryReportedHandler(emailLogRepo, logger)
	digestRequestedHandler := mqhandler.NewDigestRequestedHandler(digestService, publisher, logger)
	summaryCreatedHandler := mqhandler.NewSummaryCreatedHandler(summaryRepo, logger)

	consumers := []struct {
		queue   string
		key     string
		handler mq.MessageHandler
	}{
		{"news.article.created.q", "news.article.created", articleCreatedHandler.Handle},
		{"news.article.classified.q", "news.article.classified", articleClassifiedHandler.Handle},
		{"news.summary.created.q", "news.summary.created", summaryCreatedHandler.Handle},
		{"news.keyword.observed.q", "news.keyword.observed", keywordObservedHandler.Handle},
		{"email.delivery.reported.q", "email.delivery.reported", deliveryReportedHandler.Handle},
		{"email.digest.requested.q", "email.digest.requested", digestRequestedHandler.Handle},
	}

	for _, c := range consumers {
		logger.Info("Init consumer", zap.String("queue", c.queue))
		consumer, err := mq.NewConsumer(cfg.MQ.URL, c.queue, c.key, logger)
		if err != nil {
			logger.Fatal("Consumer init failed",
				zap.String("queue", c.queue),
				zap.Error(err),
			)
		}
		consumer.SetHandler(c.handler)
		defer consumer.Close()

		go func(queue string) {
			if err := consumer.StartConsuming(); err != nil {
				logger.Fatal("Consumer crashed",
					zap.String("queue", queue),
					zap.Error(err),
				)
			}
		}(c.queue)
	}

	// background decay sweep
	sweeper := trend.NewSweeper(keywordRepo, policy, logger)
	go sweeper.Start(ctx)

	// ops endpoints
	srv := httpserver.New(cfg.Server.Port, dbConn, rdb, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("HTTP server crashed", zap.Error(err))
		}
	}()

	logger.Info("Newsbite storage service running")
	select {}
}
