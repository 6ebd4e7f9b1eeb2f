package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/config"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
	"github.com/mcdev12/livedraft/go/internal/natsutil"
)

// Options are the process-level switches of the API server. Engine settings
// live in config.Config.
type Options struct {
	Port         string
	Migrate      bool
	RunScheduler bool
	RunRelay     bool
	NATSStoreDir string
}

func loadOptions() Options {
	return Options{
		Port:         config.GetEnv("PORT", "8080"),
		Migrate:      config.GetEnvAsBool("DB_MIGRATE", true),
		RunScheduler: config.GetEnvAsBool("RUN_SCHEDULER", false),
		RunRelay:     config.GetEnvAsBool("RUN_RELAY", false),
		NATSStoreDir: config.GetEnv("NATS_STORE_DIR", ""),
	}
}

// natsDeps holds the broker handles. All fields are nil when NATS is not
// configured.
type natsDeps struct {
	server *server.Server
	conn   *nats.Conn
	js     jetstream.JetStream
	jsCfg  outbox.JetStreamConfig
}

func (n *natsDeps) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
	if n.server != nil {
		n.server.Shutdown()
	}
}

// setupNATS starts an embedded server when configured, otherwise dials
// NATS_URL. With neither set the server runs without a broker.
func setupNATS(ctx context.Context, cfg *config.Config, opts Options) (*natsDeps, error) {
	deps := &natsDeps{jsCfg: outbox.DefaultJetStreamConfig()}
	deps.jsCfg.StreamName = cfg.NATS.Stream

	switch {
	case cfg.NATS.Embedded:
		ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{StoreDir: opts.NATSStoreDir})
		if err != nil {
			return nil, err
		}
		deps.server = ns
		deps.jsCfg.URL = ns.ClientURL()
	case cfg.NATS.URL != "":
		deps.jsCfg.URL = cfg.NATS.URL
	default:
		log.Warn().Msg("NATS not configured, running without event stream")
		return deps, nil
	}

	nc, err := outbox.Connect(deps.jsCfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	deps.js = js

	// consumers bind to the stream before the relay's first publish
	if err := outbox.EnsureStream(ctx, js, deps.jsCfg); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}
