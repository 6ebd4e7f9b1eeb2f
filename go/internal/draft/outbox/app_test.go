package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livedraft/go/internal/draft/events"
)

// memRepo is an in-memory OutboxRepository.
type memRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*OutboxEvent
	failures map[uuid.UUID]string
	seq      time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:     make(map[uuid.UUID]*OutboxEvent),
		failures: make(map[uuid.UUID]string),
		seq:      time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *memRepo) InsertOutboxEvent(_ context.Context, draftID uuid.UUID, eventType string, payload []byte) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.seq = r.seq.Add(time.Millisecond)
	r.rows[id] = &OutboxEvent{ID: id, DraftID: draftID, EventType: eventType, Payload: payload, CreatedAt: r.seq}
	return id, nil
}

func (r *memRepo) FetchUnsentOutbox(_ context.Context, limit int32) ([]OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []OutboxEvent
	for _, e := range r.rows {
		if e.SentAt == nil {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) FetchOutboxByID(_ context.Context, id uuid.UUID) (*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok || e.SentAt != nil {
		return nil, ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memRepo) MarkOutboxSent(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return errors.New("not found")
	}
	now := time.Now()
	e.SentAt = &now
	return nil
}

func (r *memRepo) MarkOutboxFailed(_ context.Context, id uuid.UUID, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rows[id]; ok {
		e.Attempts++
	}
	r.failures[id] = cause.Error()
	return nil
}

func (r *memRepo) CountUnsentOutbox(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.rows {
		if e.SentAt == nil {
			n++
		}
	}
	return n, nil
}

func TestApp_EmitWritesPayload(t *testing.T) {
	repo := newMemRepo()
	app := NewApp(repo)
	ctx := context.Background()
	draftID := uuid.New()

	app.Emit(ctx, events.Event{
		DraftID: draftID,
		Type:    events.PickMade,
		Payload: events.PickMadePayload{DraftID: draftID.String(), PlayerID: "p-7", Overall: 3, Round: 1},
	})

	unsent, err := app.FetchUnsentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, draftID, unsent[0].DraftID)
	assert.Equal(t, string(events.PickMade), unsent[0].EventType)

	var p events.PickMadePayload
	require.NoError(t, json.Unmarshal(unsent[0].Payload, &p))
	assert.Equal(t, "p-7", p.PlayerID)
	assert.Equal(t, 3, p.Overall)

	n, err := app.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApp_EmitDropsUnmarshalablePayload(t *testing.T) {
	repo := newMemRepo()
	app := NewApp(repo)

	app.Emit(context.Background(), events.Event{DraftID: uuid.New(), Type: events.PickMade, Payload: make(chan int)})

	n, err := app.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApp_InsertEventValidatesPayload(t *testing.T) {
	app := NewApp(newMemRepo())
	ctx := context.Background()

	_, err := app.InsertEvent(ctx, uuid.New(), "PickMade", nil)
	assert.Error(t, err)
	_, err = app.InsertEvent(ctx, uuid.New(), "PickMade", []byte("{not json"))
	assert.Error(t, err)

	id, err := app.InsertEvent(ctx, uuid.New(), "PickMade", []byte(`{"overall":1}`))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
}

func TestApp_FetchUnsentRequiresLimit(t *testing.T) {
	_, err := NewApp(newMemRepo()).FetchUnsentEvents(context.Background(), 0)
	assert.Error(t, err)
}
