package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server exposes the operational endpoints: liveness, readiness and
// Prometheus metrics. It carries no domain routes.
type Server struct {
	addr   string
	pool   *pgxpool.Pool
	rdb    *redis.Client
	logger *zap.Logger
}

func New(addr string, pool *pgxpool.Pool, rdb *redis.Client, logger *zap.Logger) *Server {
	return &Server{
		addr:   addr,
		pool:   pool,
		rdb:    rdb,
		logger: logger,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports ready only when both backing stores answer a ping.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		s.logger.Warn("Readiness probe: db ping failed", zap.Error(err))
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.logger.Warn("Readiness probe: redis ping failed", zap.Error(err))
		http.Error(w, "redis not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Start blocks serving until the listener fails. Call in a goroutine.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.Handler())

	s.logger.Info("HTTP server listening", zap.String("addr", s.addr))

	srv := &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
