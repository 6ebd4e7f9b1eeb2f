// Package natsutil starts an in-process NATS server with JetStream enabled.
package natsutil

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog/log"
)

// EmbeddedOptions configures the embedded server.
type EmbeddedOptions struct {
	Port     int    // -1 picks a random free port
	StoreDir string // JetStream storage; empty uses the server default
}

// StartEmbedded starts a NATS server in-process and waits until it accepts
// connections. Callers own Shutdown.
func StartEmbedded(opts EmbeddedOptions) (*server.Server, error) {
	port := opts.Port
	if port == 0 {
		port = -1
	}

	ns, err := server.NewServer(&server.Options{
		Port:      port,
		JetStream: true,
		NoLog:     true,
		NoSigs:    true,
		StoreDir:  opts.StoreDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
	}

	log.Info().Str("url", ns.ClientURL()).Msg("embedded NATS server started")
	return ns, nil
}
