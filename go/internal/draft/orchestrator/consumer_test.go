package orchestrator

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/outbox"
	"github.com/mcdev12/livedraft/go/internal/natsutil"
)

type countingWaker struct{ n atomic.Int32 }

func (w *countingWaker) Wake() { w.n.Add(1) }

func TestWakeSink(t *testing.T) {
	tests := []struct {
		eventType events.EventType
		wakes     bool
	}{
		{events.DraftStarted, true},
		{events.PickStarted, true},
		{events.DraftResumed, true},
		{events.DraftReseeded, true},
		{events.PickMade, false},
		{events.DraftPaused, false},
		{events.DraftCompleted, false},
		{events.AutopickFailed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			w := &countingWaker{}
			sink := &WakeSink{Waker: w}
			sink.Emit(context.Background(), events.Event{DraftID: uuid.New(), Type: tt.eventType})
			if tt.wakes {
				assert.EqualValues(t, 1, w.n.Load())
			} else {
				assert.Zero(t, w.n.Load())
			}
		})
	}
}

func TestWakeSink_UnsetWakerIsNoop(t *testing.T) {
	sink := &WakeSink{}
	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), events.Event{Type: events.PickStarted})
	})
}

func TestWakeConsumer_WakesOnDeadlineEvents(t *testing.T) {
	ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{Port: -1, StoreDir: t.TempDir()})
	require.NoError(t, err)
	defer func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	}()

	cfg := outbox.DefaultJetStreamConfig()
	cfg.URL = ns.ClientURL()
	nc, err := outbox.Connect(cfg)
	require.NoError(t, err)
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := outbox.NewJetStreamPublisher(ctx, nc, cfg)
	require.NoError(t, err)
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	w := &countingWaker{}
	consumer := NewWakeConsumer(js, cfg.StreamName, w)
	go func() { _ = consumer.Start(ctx) }()

	// the consumer delivers new messages only, so publish once it is bound
	require.Eventually(t, func() bool {
		_, err := js.Consumer(ctx, cfg.StreamName, consumerName)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	draftID := uuid.New()
	for _, et := range []events.EventType{events.PickMade, events.PickStarted} {
		require.NoError(t, pub.Publish(ctx, outbox.OutboxEvent{
			ID:        uuid.New(),
			DraftID:   draftID,
			EventType: string(et),
			Payload:   json.RawMessage(`{}`),
		}))
	}

	require.Eventually(t, func() bool { return w.n.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}
