package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/rs/zerolog"

	"github.com/Marrmee/spark-gate/adapters/cache"
	"github.com/Marrmee/spark-gate/adapters/events"
	"github.com/Marrmee/spark-gate/adapters/ledger"
	"github.com/Marrmee/spark-gate/internal/config"
	"github.com/Marrmee/spark-gate/service"
	transport "github.com/Marrmee/spark-gate/transport/http"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Signature ledger
	signatureLedger, err := ledger.NewPostgresLedger(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer signatureLedger.Close()
	if err := signatureLedger.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("schema setup failed")
	}
	logger.Info().Msg("connected to PostgreSQL")

	// Proposal cache
	proposalCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer proposalCache.Close()
	logger.Info().Msg("connected to Redis")

	// Event publisher, sharing the cache's Redis connection
	wmLogger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: proposalCache.Client(),
		},
		wmLogger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create event publisher")
	}
	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(signatureLedger, eventPub, cfg.SessionDuration, logger)
	refreshService := service.NewRefreshService(proposalCache, eventPub, logger)

	handlers := transport.NewHandlers(authService, refreshService, signatureLedger, proposalCache)
	router := transport.SetupRouter(handlers, authService)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Scheduled cache sweeps, decoupled from the request path
	sweepCtx, stopSweeps := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				refreshService.Refresh(sweepCtx)
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Dur("session_duration", cfg.SessionDuration).
			Dur("refresh_interval", cfg.RefreshInterval).
			Msg("starting spark-gate")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down...")
	stopSweeps()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
