package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"complyform/db"
	"complyform/db/migrations"
	"complyform/internal/assessment"
	"complyform/internal/compliance"
	"complyform/internal/config"
	"complyform/internal/directory"
	"complyform/internal/handlers"
	"complyform/internal/logger"
	"complyform/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to DB")
	}
	defer dbConn.Close()

	if cfg.RunMigrations {
		if err := migrations.Run(dbConn.DB); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}

	store := db.NewStorage(dbConn)
	m := metrics.New(prometheus.DefaultRegisterer)

	checks, err := compliance.ParseCheckSet(cfg.ValidationChecks)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid VALIDATION_CHECKS")
	}

	// справочник читается через Redis, если он настроен
	var dir compliance.Directory = store
	var cache *directory.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		defer client.Close()
		cache = directory.NewCache(store, client, cfg.DirectoryCacheTTL, log, m)
		dir = cache
	}

	engine := compliance.NewEngine(store, dir,
		compliance.WithChecks(checks),
		compliance.WithLogger(log.With().Str("component", "engine").Logger()),
		compliance.WithMetrics(m),
	)
	assessor := assessment.NewService(store, log.With().Str("component", "assessment").Logger(), m)

	h := handlers.NewHandler(store, engine, assessor, log)
	if cache != nil {
		h.Cache = cache
	}

	srv := &http.Server{
		Addr: cfg.ServerAddress,
		Handler: handlers.NewRouter(h, handlers.RouterConfig{
			CORSOrigins: cfg.CORSOrigins,
			Gatherer:    prometheus.DefaultGatherer,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Strs("checks", checkNames(engine)).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func checkNames(e *compliance.Engine) []string {
	ids := e.Checks()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
