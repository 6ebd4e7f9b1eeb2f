package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/config"
	"github.com/mcdev12/livedraft/go/internal/dbconfig"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
)

func main() {
	// load .env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// configure zerolog console output and level
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// DB config
	dbCfg := dbconfig.NewConfigFromEnv()
	dsn := dbCfg.DSN()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")

	// signal‐aware context
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// JetStream publisher
	jsCfg := outbox.DefaultJetStreamConfig()
	if cfg.NATS.URL != "" {
		jsCfg.URL = cfg.NATS.URL
	}
	jsCfg.StreamName = cfg.NATS.Stream
	nc, err := outbox.Connect(jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to NATS")
	}
	defer nc.Close()

	jsPublisher, err := outbox.NewJetStreamPublisher(ctx, nc, jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create JetStream publisher")
	}
	publisher := outbox.NewMetricPublisher(jsPublisher)

	// Listener config
	ltCfg := outbox.DefaultListenerConfig()
	ltCfg.DatabaseURL = dsn
	ltCfg.FallbackInterval = config.GetEnvAsDuration("FALLBACK_INTERVAL", ltCfg.FallbackInterval)

	events := outbox.NewApp(outbox.NewRepository(db))
	listener, err := outbox.NewListener(events, publisher, ltCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create outbox listener")
	}

	// health endpoint
	healthPort := config.GetEnv("OUTBOX_HEALTH_PORT", "8083")
	mux := http.NewServeMux()
	mux.Handle("/health", outbox.NewHealthChecker(db, events, nc, publisher.Stats,
		config.GetEnvAsDuration("UNHEALTHY_LAG", outbox.DefaultUnhealthyLag)))
	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", healthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	// run listener
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("nats_url", jsCfg.URL).Msg("starting outbox relay")
		errCh <- listener.Start(ctx)
	}()

	// wait for shutdown or error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		<-errCh
	case err := <-errCh:
		log.Error().Err(err).Msg("listener exited unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown failed")
	}

	stats := publisher.Stats()
	log.Info().
		Uint64("published", stats.Published).
		Uint64("failed", stats.Failed).
		Msg("graceful shutdown complete")
}
