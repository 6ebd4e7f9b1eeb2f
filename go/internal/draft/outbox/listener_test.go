package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyPublisher fails the first failures publishes, then records events.
type flakyPublisher struct {
	mu        sync.Mutex
	failures  int
	published []OutboxEvent
}

func (p *flakyPublisher) Publish(_ context.Context, e OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("nats unavailable")
	}
	p.published = append(p.published, e)
	return nil
}

func newTestListener(store EventStore, pub Publisher) *Listener {
	cfg := DefaultListenerConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetries = 2
	return &Listener{store: store, publisher: pub, cfg: cfg}
}

func seed(t *testing.T, app *App, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := app.InsertEvent(context.Background(), [16]byte{byte(i + 1)}, "PickMade", []byte(`{}`))
		require.NoError(t, err)
	}
}

func TestListener_ProcessUnsentPublishesInOrder(t *testing.T) {
	repo := newMemRepo()
	app := NewApp(repo)
	seed(t, app, 3)
	pub := &flakyPublisher{}
	metrics := NewMetricPublisher(pub)

	l := newTestListener(app, metrics)
	require.NoError(t, l.processUnsent(context.Background()))

	require.Len(t, pub.published, 3)
	for i := 1; i < len(pub.published); i++ {
		assert.True(t, pub.published[i-1].CreatedAt.Before(pub.published[i].CreatedAt))
	}
	n, err := app.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	stats := metrics.Stats()
	assert.EqualValues(t, 3, stats.Published)
	assert.Zero(t, stats.Failed)
	assert.False(t, stats.LastPublished.IsZero())
}

func TestListener_RetriesThenSucceeds(t *testing.T) {
	repo := newMemRepo()
	app := NewApp(repo)
	seed(t, app, 1)
	pub := &flakyPublisher{failures: 2}
	metrics := NewMetricPublisher(pub)

	l := newTestListener(app, metrics)
	require.NoError(t, l.processUnsent(context.Background()))

	assert.Len(t, pub.published, 1)
	assert.EqualValues(t, 2, metrics.Stats().Failed)
	n, _ := app.PendingCount(context.Background())
	assert.Zero(t, n)
}

func TestListener_GivesUpAndRecordsFailure(t *testing.T) {
	repo := newMemRepo()
	app := NewApp(repo)
	seed(t, app, 1)
	pub := &flakyPublisher{failures: 10}

	l := newTestListener(app, pub)
	require.NoError(t, l.processUnsent(context.Background()))

	assert.Empty(t, pub.published)
	n, _ := app.PendingCount(context.Background())
	assert.Equal(t, 1, n, "failed rows stay pending for the next sweep")
	require.Len(t, repo.failures, 1)
	for _, msg := range repo.failures {
		assert.Contains(t, msg, "publish failed after 3 attempts")
	}
}

func TestListener_HandleNotification(t *testing.T) {
	repo := newMemRepo()
	app := NewApp(repo)
	id, err := app.InsertEvent(context.Background(), [16]byte{9}, "DraftStarted", []byte(`{}`))
	require.NoError(t, err)
	pub := &flakyPublisher{}

	l := newTestListener(app, pub)
	require.NoError(t, l.handleNotification(context.Background(), id.String()))
	require.Len(t, pub.published, 1)
	assert.Equal(t, id, pub.published[0].ID)

	// a row already relayed by the sweep is not an error
	require.NoError(t, l.handleNotification(context.Background(), id.String()))
	assert.Len(t, pub.published, 1)

	assert.Error(t, l.handleNotification(context.Background(), "not-a-uuid"))
}

func TestListener_StopWithoutConnection(t *testing.T) {
	assert.NoError(t, newTestListener(NewApp(newMemRepo()), LogPublisher{}).Stop())
}
