package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(config.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	opts := loadOptions()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, dbCfg, err := setupDatabase(ctx, opts.Migrate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer database.Close()

	broker, err := setupNATS(ctx, cfg, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup NATS")
	}
	defer broker.Close()

	services, err := setupServices(ctx, database, dbCfg.DSN(), cfg, opts, broker)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}

	startBackground(ctx, services)

	server := setupServer(services, opts.Port)
	go func() {
		log.Info().
			Str("port", opts.Port).
			Str("snapshot_store", cfg.SnapshotStore).
			Bool("scheduler", services.Scheduler != nil).
			Bool("relay", services.Relay != nil).
			Msg("starting draft server")
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

	log.Info().Msg("draft server shutdown complete")
}

// startBackground runs the gateway, scheduler and relay until ctx is done.
func startBackground(ctx context.Context, services *Services) {
	go func() {
		if err := services.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	if services.Scheduler != nil {
		go func() {
			if err := services.Scheduler.RunScheduler(ctx); err != nil {
				log.Error().Err(err).Msg("scheduler stopped")
			}
		}()
	}
	if services.WakeConsumer != nil {
		go func() {
			if err := services.WakeConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("wake consumer failed")
			}
		}()
	}
	if services.Relay != nil {
		go func() {
			if err := services.Relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("outbox relay stopped")
			}
		}()
	}
}
