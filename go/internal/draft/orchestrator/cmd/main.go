package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/config"
	"github.com/mcdev12/livedraft/go/internal/dbconfig"
	"github.com/mcdev12/livedraft/go/internal/draft/draft"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/orchestrator"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
	"github.com/mcdev12/livedraft/go/internal/draft/pick"
	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/leagues"
	"github.com/mcdev12/livedraft/go/internal/player"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	healthPort := config.GetEnv("ORCHESTRATOR_HEALTH_PORT", "8082")

	// Database configuration
	dbCfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// NATS is optional: without it the scheduler falls back to polling
	var js jetstream.JetStream
	if cfg.NATS.URL != "" {
		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.Stream
		nc, err := outbox.Connect(jsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer nc.Close()
		if js, err = jetstream.New(nc); err != nil {
			log.Fatal().Err(err).Msg("failed to create JetStream context")
		}
		if err := outbox.EnsureStream(ctx, js, jsCfg); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure event stream")
		}
	}

	var kv jetstream.JetStream
	if cfg.SnapshotStore == config.SnapshotStoreKV {
		kv = js
	}
	store, err := repository.Open(ctx, db, kv, cfg.NATS.KVBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open draft store")
	}

	clock := clockwork.NewRealClock()
	sink := events.Fanout{
		outbox.NewApp(outbox.NewRepository(db)),
		draft.NewLeaguePhaseMirror(store, leagues.NewApp(leagues.NewRepository(db))),
	}
	pickApp := pick.NewApp(store, sink, clock, cfg.Draft.ApplyMaxAttempts)
	strategy := orchestrator.NewBestAvailableStrategy(player.NewRepository(db))
	monitor := orchestrator.NewMonitor(store, pickApp, strategy, sink, clock)

	orch := orchestrator.NewOrchestrator(store, monitor, clock, orchestrator.Config{
		Workers:   cfg.Orchestrator.Workers,
		BatchSize: int32(cfg.Orchestrator.BatchSize),
		IdlePoll:  cfg.Orchestrator.IdlePoll,
	})

	log.Info().
		Str("database", dbCfg.Database).
		Str("snapshot_store", cfg.SnapshotStore).
		Int("workers", cfg.Orchestrator.Workers).
		Msg("starting draft orchestrator")

	go func() {
		if err := orch.RunScheduler(ctx); err != nil {
			log.Error().Err(err).Msg("orchestrator stopped")
		}
	}()

	if js != nil {
		consumer := orchestrator.NewWakeConsumer(js, cfg.NATS.Stream, orch)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("wake consumer failed")
			}
		}()
	}

	// Health check endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, pingCancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer pingCancel()
		status := map[string]any{"status": "healthy", "snapshot_store": cfg.SnapshotStore}
		if err := db.PingContext(pingCtx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			status["status"] = "unhealthy"
			status["error"] = err.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Error().Err(err).Msg("failed to write health response")
		}
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", healthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down orchestrator")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown failed")
	}
}
