package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mcdev12/livedraft/go/internal/config"
	"github.com/mcdev12/livedraft/go/internal/draft/draft"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/gateway"
	"github.com/mcdev12/livedraft/go/internal/draft/orchestrator"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
	"github.com/mcdev12/livedraft/go/internal/draft/pick"
	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/leagues"
	"github.com/mcdev12/livedraft/go/internal/player"
)

type Services struct {
	Draft   *draft.Service
	Picks   *pick.Service
	Players *player.Service
	League  *leagues.Service
	Gateway *gateway.Service

	// Optional background components, nil when disabled.
	Scheduler    *orchestrator.Orchestrator
	WakeConsumer *orchestrator.WakeConsumer
	Relay        *outbox.Listener
	OutboxHealth *outbox.HealthChecker
}

func setupServices(ctx context.Context, database *sql.DB, dsn string, cfg *config.Config, opts Options, broker *natsDeps) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()

	var kv jetstream.JetStream
	if cfg.SnapshotStore == config.SnapshotStoreKV {
		kv = broker.js
	}
	store, err := repository.Open(ctx, database, kv, cfg.NATS.KVBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}

	// League
	leagueApp := leagues.NewApp(leagues.NewRepository(database))
	leagueService := leagues.NewService(leagueApp)

	// Events: outbox rows for the relay, league phase, in-process scheduler
	outboxApp := outbox.NewApp(outbox.NewRepository(database))
	wake := &orchestrator.WakeSink{}
	sink := events.Fanout{
		outboxApp,
		draft.NewLeaguePhaseMirror(store, leagueApp),
		wake,
	}

	// Players
	playerRepo := player.NewRepository(database)
	playerService := player.NewService(player.NewApp(playerRepo, store))

	// Picks and autopick
	pickApp := pick.NewApp(store, sink, clock, cfg.Draft.ApplyMaxAttempts)
	monitor := orchestrator.NewMonitor(store, pickApp, orchestrator.NewBestAvailableStrategy(playerRepo), sink, clock)
	pickService := pick.NewService(pickApp, monitor)

	// Draft lifecycle
	draftApp := draft.NewApp(store, leagueApp, sink, clock, draft.Defaults{
		Rounds:          cfg.Draft.DefaultRounds,
		PickTimeSeconds: cfg.Draft.DefaultPickTimeSeconds,
		Snake:           cfg.Draft.Snake,
		MaxAttempts:     cfg.Draft.ApplyMaxAttempts,
	}).WithStateChecker(monitor)
	draftService := draft.NewService(draftApp)

	// Gateway
	gwCfg := gateway.DefaultConfig()
	gwCfg.JetStreamConfig.StreamName = cfg.NATS.Stream
	gatewayService := gateway.NewService(gwCfg, draftApp, broker.js, clock)

	services := &Services{
		Draft:   draftService,
		Picks:   pickService,
		Players: playerService,
		League:  leagueService,
		Gateway: gatewayService,
	}

	if opts.RunScheduler {
		sched := orchestrator.NewOrchestrator(store, monitor, clock, orchestrator.Config{
			Workers:   cfg.Orchestrator.Workers,
			BatchSize: int32(cfg.Orchestrator.BatchSize),
			IdlePoll:  cfg.Orchestrator.IdlePoll,
		})
		wake.Waker = sched
		services.Scheduler = sched
		if broker.js != nil {
			services.WakeConsumer = orchestrator.NewWakeConsumer(broker.js, cfg.NATS.Stream, sched)
		}
	}

	if opts.RunRelay {
		var publisher outbox.Publisher = outbox.LogPublisher{}
		if broker.conn != nil {
			jsPub, err := outbox.NewJetStreamPublisher(ctx, broker.conn, broker.jsCfg)
			if err != nil {
				return nil, err
			}
			publisher = jsPub
		}
		metrics := outbox.NewMetricPublisher(publisher)

		ltCfg := outbox.DefaultListenerConfig()
		ltCfg.DatabaseURL = dsn
		relay, err := outbox.NewListener(outboxApp, metrics, ltCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox relay: %w", err)
		}
		services.Relay = relay
		services.OutboxHealth = outbox.NewHealthChecker(database, outboxApp, broker.conn, metrics.Stats, outbox.DefaultUnhealthyLag)
	}

	return services, nil
}
