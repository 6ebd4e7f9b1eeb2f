package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
)

const (
	consumerName          = "draft-scheduler"
	consumerMaxDeliver    = 5
	consumerAckWait       = 30 * time.Second
	consumerMaxAckPending = 100
)

// Waker is poked whenever an event may have moved the earliest deadline.
type Waker interface {
	Wake()
}

// WakeConsumer reads draft events from JetStream and wakes the scheduler.
// Events carry no authority here: the scheduler re-reads snapshots.
type WakeConsumer struct {
	js       jetstream.JetStream
	stream   string
	consumer jetstream.Consumer
	waker    Waker
}

func NewWakeConsumer(js jetstream.JetStream, streamName string, waker Waker) *WakeConsumer {
	return &WakeConsumer{js: js, stream: streamName, waker: waker}
}

// ensureConsumer creates or gets the JetStream consumer
func (c *WakeConsumer) ensureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.stream)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.Consumer(ctx, consumerName)
	if errors.Is(err, jetstream.ErrConsumerNotFound) {
		consumer, err = stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
			Name:          consumerName,
			Durable:       consumerName,
			Description:   "Draft scheduler wakeups",
			FilterSubject: "draft.events.>",
			DeliverPolicy: jetstream.DeliverNewPolicy,
			AckPolicy:     jetstream.AckExplicitPolicy,
			MaxDeliver:    consumerMaxDeliver,
			AckWait:       consumerAckWait,
			MaxAckPending: consumerMaxAckPending,
		})
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().Str("consumer", consumerName).Msg("created JetStream consumer for scheduler")
	} else if err != nil {
		return fmt.Errorf("get consumer: %w", err)
	}

	c.consumer = consumer
	return nil
}

// Start consumes until ctx is done.
func (c *WakeConsumer) Start(ctx context.Context) error {
	if err := c.ensureConsumer(ctx); err != nil {
		return err
	}

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		if err := c.handle(msg); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process scheduler event")
			if nakErr := msg.Nak(); nakErr != nil {
				log.Error().Err(nakErr).Msg("failed to NAK message")
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			log.Error().Err(ackErr).Msg("failed to ACK message")
		}
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	defer consumeCtx.Stop()

	<-ctx.Done()
	log.Info().Msg("scheduler event consumer shutting down")
	return nil
}

func (c *WakeConsumer) handle(msg jetstream.Msg) error {
	var env outbox.Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	if movesDeadline(events.EventType(env.EventType)) {
		log.Debug().
			Str("draft_id", env.DraftID).
			Str("event_type", env.EventType).
			Msg("waking scheduler")
		c.waker.Wake()
	}
	return nil
}

// movesDeadline reports whether an event can change the earliest deadline.
func movesDeadline(t events.EventType) bool {
	switch t {
	case events.DraftStarted, events.PickStarted, events.DraftResumed, events.DraftReseeded:
		return true
	}
	return false
}

// WakeSink wakes an in-process scheduler straight from emitted events, for
// deployments that run the scheduler next to the API. Waker may be set after
// the sink is wired.
type WakeSink struct {
	Waker Waker
}

func (s *WakeSink) Emit(_ context.Context, e events.Event) {
	if s.Waker != nil && movesDeadline(e.Type) {
		s.Waker.Wake()
	}
}
