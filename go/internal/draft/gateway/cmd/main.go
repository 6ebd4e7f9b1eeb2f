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
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/config"
	"github.com/mcdev12/livedraft/go/internal/dbconfig"
	"github.com/mcdev12/livedraft/go/internal/draft/draft"
	"github.com/mcdev12/livedraft/go/internal/draft/gateway"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/leagues"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	port := config.GetEnv("GATEWAY_PORT", "8081")

	dbCfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	jsCfg := outbox.DefaultJetStreamConfig()
	if cfg.NATS.URL != "" {
		jsCfg.URL = cfg.NATS.URL
	}
	jsCfg.StreamName = cfg.NATS.Stream
	nc, err := outbox.Connect(jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create JetStream context")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var kv jetstream.JetStream
	if cfg.SnapshotStore == config.SnapshotStoreKV {
		kv = js
	}
	store, err := repository.Open(ctx, db, kv, cfg.NATS.KVBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open draft store")
	}

	clock := clockwork.NewRealClock()
	draftApp := draft.NewApp(store, leagues.NewApp(leagues.NewRepository(db)), nil, clock, draft.Defaults{
		Rounds:          cfg.Draft.DefaultRounds,
		PickTimeSeconds: cfg.Draft.DefaultPickTimeSeconds,
		Snake:           cfg.Draft.Snake,
		MaxAttempts:     cfg.Draft.ApplyMaxAttempts,
	})

	gwCfg := gateway.DefaultConfig()
	gwCfg.JetStreamConfig.StreamName = cfg.NATS.Stream
	gatewayService := gateway.NewService(gwCfg, draftApp, js, clock)

	mux := http.NewServeMux()
	gatewayService.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		stats := gatewayService.Stats()
		info := map[string]any{
			"service":       "draft-gateway",
			"connections":   stats.TotalConnections,
			"active_drafts": stats.ActiveDrafts,
		}
		if ci, err := gatewayService.Consumer().GetConsumerInfo(r.Context()); err == nil {
			info["consumer_pending"] = ci.NumPending
			info["consumer_ack_pending"] = ci.NumAckPending
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(info); err != nil {
			log.Error().Err(err).Msg("failed to write info response")
		}
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", port),
		Handler:     cors.AllowAll().Handler(mux),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	log.Info().
		Str("database", dbCfg.String()).
		Str("nats_url", jsCfg.URL).
		Str("snapshot_store", cfg.SnapshotStore).
		Str("port", port).
		Msg("starting draft gateway")

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("draft gateway shutdown complete")
}
