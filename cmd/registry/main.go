package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-registry/internal/config"
	"doc-registry/internal/handler"
	"doc-registry/internal/metrics"
	"doc-registry/internal/middleware"
	"doc-registry/internal/repository"
	"doc-registry/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// storage
	var store repository.DocumentStore
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err = repository.NewPostgresStore(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect postgres")
		}
		log.Info().Msg("using postgres document store")
	} else {
		store = repository.NewMemoryStore()
		log.Warn().Msg("DATABASE_URL not set, using in-memory document store")
	}
	defer store.Close()

	// read cache
	var cache repository.DocumentCache
	if cfg.RedisAddr != "" {
		cache, err = repository.NewRedisCache(cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		log.Info().Msg("using redis document cache")
	} else {
		cache = repository.NewMemoryCache(cfg.CacheTTL, 10000)
	}
	cached := repository.NewCachedStore(store, cache)

	// metrics
	metricsRegistry := metrics.NewRegistry()

	// admission pipeline
	gate, err := service.NewRateGate(cfg.RateLimit, cfg.RateInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid rate gate configuration")
	}
	retry, err := service.NewRetryPolicy(cfg.RetryMaxAttempts, cfg.RetryBackoff, service.IsRateLimited)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid retry configuration")
	}
	docSvc := service.NewDocumentService(gate, retry, cached, metricsRegistry)

	// handlers
	documents := handler.NewDocumentsHandler(docSvc, metricsRegistry, cfg.RateInterval)
	health := &handler.HealthHandler{Store: cached}

	// JWT auth (optional: only if JWT_SECRET is set)
	var jwtMiddleware func(http.Handler) http.Handler
	if cfg.JWTSecret != "" {
		jwtMiddleware = middleware.NewJWTMiddleware([]byte(cfg.JWTSecret), cfg.JWTIssuer)
		log.Info().Msg("JWT authentication enabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsRegistry.Handler())
	mux.HandleFunc("/health", health.Liveness)
	mux.HandleFunc("/ready", health.Readiness)
	mux.HandleFunc("/status", health.Status)
	if jwtMiddleware != nil {
		mux.Handle("/api/v3/lk/documents/", jwtMiddleware(documents))
	} else {
		mux.Handle("/api/v3/lk/documents/", documents)
	}

	// middleware chain
	h := middleware.RequestID(mux)
	h = middleware.Logging(h)
	h = middleware.RequestSizeLimit(middleware.MaxRequestSize)(h)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: h}

	go func() {
		log.Info().Msgf("listening %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server exited")
}
