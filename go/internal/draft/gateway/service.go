package gateway

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// DraftStateSource is what the gateway needs from the draft lifecycle app
type DraftStateSource interface {
	StateProvider
	UpcomingProvider
}

// Service pushes draft snapshots to websocket clients and serves state reads
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
	stateHandler      *StateHandler
}

// Config holds configuration for the draft gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

// DefaultConfig returns default configuration for the draft gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService creates a new draft gateway service. js may be nil, in which
// case clients only receive the snapshot sent on connect.
func NewService(config Config, source DraftStateSource, js jetstream.JetStream, clock clockwork.Clock) *Service {
	cm := NewConnectionManager(config.ConnectionConfig, clock)

	s := &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, source, clock),
		stateHandler:      NewStateHandler(source, source),
	}
	if js != nil {
		s.eventConsumer = NewEventConsumer(js, cm, source, clock, config.JetStreamConfig)
	}
	return s
}

// Start runs the broadcaster and the event consumer until ctx is done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting draft gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("draft gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("draft gateway routes registered")
}

// Consumer exposes the event consumer, nil when running without NATS.
func (s *Service) Consumer() *EventConsumer {
	return s.eventConsumer
}

// Stats returns connection statistics
func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
