package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
)

// JetStreamConsumerConfig holds configuration for the JetStream consumer
type JetStreamConsumerConfig struct {
	StreamName    string
	ConsumerName  string
	SubjectFilter string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
}

// DefaultJetStreamConsumerConfig returns default JetStream consumer configuration
func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	return JetStreamConsumerConfig{
		StreamName:    outbox.DefaultJetStreamConfig().StreamName,
		ConsumerName:  "draft-gateway",
		SubjectFilter: "draft.events.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	}
}

// EventConsumer turns committed draft events into snapshot pushes. Every event
// triggers a fresh snapshot read so clients never render from the payload
// alone.
type EventConsumer struct {
	connectionManager *ConnectionManager
	provider          StateProvider
	js                jetstream.JetStream
	consumer          jetstream.Consumer
	clock             clockwork.Clock
	config            JetStreamConsumerConfig
}

// NewEventConsumer creates a new JetStream event consumer
func NewEventConsumer(js jetstream.JetStream, cm *ConnectionManager, provider StateProvider, clock clockwork.Clock, config JetStreamConsumerConfig) *EventConsumer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EventConsumer{
		connectionManager: cm,
		provider:          provider,
		js:                js,
		clock:             clock,
		config:            config,
	}
}

// ensureConsumer creates or gets the JetStream consumer
func (ec *EventConsumer) ensureConsumer(ctx context.Context) error {
	stream, err := ec.js.Stream(ctx, ec.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.Consumer(ctx, ec.config.ConsumerName)
	if errors.Is(err, jetstream.ErrConsumerNotFound) {
		consumer, err = stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
			Name:          ec.config.ConsumerName,
			Durable:       ec.config.ConsumerName,
			Description:   "Draft gateway WebSocket consumer",
			FilterSubject: ec.config.SubjectFilter,
			DeliverPolicy: jetstream.DeliverNewPolicy,
			AckPolicy:     jetstream.AckExplicitPolicy,
			MaxDeliver:    ec.config.MaxDeliver,
			AckWait:       ec.config.AckWait,
			MaxAckPending: ec.config.MaxAckPending,
			ReplayPolicy:  jetstream.ReplayInstantPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().
			Str("consumer", ec.config.ConsumerName).
			Str("stream", ec.config.StreamName).
			Msg("created JetStream consumer")
	} else if err != nil {
		return fmt.Errorf("get consumer: %w", err)
	}

	ec.consumer = consumer
	return nil
}

// Start consumes until ctx is done.
func (ec *EventConsumer) Start(ctx context.Context) error {
	if err := ec.ensureConsumer(ctx); err != nil {
		return err
	}

	log.Info().
		Str("consumer", ec.config.ConsumerName).
		Str("stream", ec.config.StreamName).
		Msg("starting JetStream event consumer")

	messageCh := make(chan jetstream.Msg, 100)
	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := ec.HandleEvent(ctx, msg.Data()); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("failed to process message")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

// HandleEvent decodes one outbox envelope and broadcasts it together with
// the draft's current snapshot. Drafts nobody is watching are skipped.
func (ec *EventConsumer) HandleEvent(ctx context.Context, data []byte) error {
	var env outbox.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}

	draftID, err := uuid.Parse(env.DraftID)
	if err != nil {
		return fmt.Errorf("parse draft ID: %w", err)
	}

	if !ec.connectionManager.HasConnections(draftID) {
		return nil
	}

	msg := &DraftMessage{
		ID:        env.EventID,
		DraftID:   env.DraftID,
		Type:      MessageTypeEvent,
		EventType: env.EventType,
		Timestamp: ec.clock.Now().UTC(),
		Data:      env.Payload,
	}

	snap, err := ec.provider.GetState(ctx, draftID)
	switch {
	case err == nil:
		msg.State = snap
	case errors.Is(err, drafterr.ErrSnapshotNotFound), errors.Is(err, drafterr.ErrDraftNotStarted):
		// Canceled before start: forward the event without a snapshot.
	default:
		return fmt.Errorf("read snapshot: %w", err)
	}

	ec.connectionManager.BroadcastToDraft(draftID, msg)

	if events.EventType(env.EventType) == events.PickStarted && snap != nil && snap.OnClockParticipantID != "" {
		ec.connectionManager.BroadcastToParticipant(draftID, snap.OnClockParticipantID, &DraftMessage{
			ID:        env.EventID,
			DraftID:   env.DraftID,
			Type:      MessageTypeOnClock,
			EventType: env.EventType,
			Timestamp: msg.Timestamp,
			State:     snap,
		})
	}

	log.Debug().
		Str("event_id", env.EventID).
		Str("draft_id", env.DraftID).
		Str("event_type", env.EventType).
		Msg("event broadcasted to WebSocket clients")
	return nil
}

// GetConsumerInfo returns information about the consumer
func (ec *EventConsumer) GetConsumerInfo(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	if ec.consumer == nil {
		return nil, errors.New("consumer not started")
	}
	return ec.consumer.Info(ctx)
}
