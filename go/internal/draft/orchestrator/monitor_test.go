package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/pick"
	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/draft/state"
	"github.com/mcdev12/livedraft/go/internal/models"
)

type harness struct {
	store   *repository.MemoryStore
	clock   *clockwork.FakeClock
	events  *events.Recorder
	monitor *Monitor
	draftID uuid.UUID
}

func newHarness(t *testing.T, pickTimeSeconds, players int) *harness {
	t.Helper()
	ctx := context.Background()

	h := &harness{
		store:   repository.NewMemoryStore(),
		clock:   clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)),
		events:  &events.Recorder{},
		draftID: uuid.New(),
	}

	pool := make([]models.Player, 0, players)
	for i := 1; i <= players; i++ {
		pool = append(pool, models.Player{
			ID:       fmt.Sprintf("pl-%02d", i),
			FullName: fmt.Sprintf("Player %d", i),
			Eligible: true,
			Rating:   float64(100 - i),
		})
	}
	h.store.PutPlayers(pool)

	settings := models.DraftSettings{Rounds: 2, PickTimeSeconds: pickTimeSeconds, Snake: true}
	_, err := h.store.CreateDraft(ctx, repository.CreateDraftRequest{ID: h.draftID, LeagueID: uuid.New(), Settings: settings})
	require.NoError(t, err)
	require.NoError(t, h.store.SaveDraftOrder(ctx, h.draftID, []string{"A", "B", "C", "D"}, settings))
	d, err := h.store.GetDraft(ctx, h.draftID)
	require.NoError(t, err)
	snap, err := state.Seed(h.draftID, state.ParamsFor(d), h.clock.Now())
	require.NoError(t, err)
	require.NoError(t, h.store.CreateSnapshot(ctx, snap))

	picks := pick.NewApp(h.store, h.events, h.clock, 3)
	h.monitor = NewMonitor(h.store, picks, NewBestAvailableStrategy(h.store), h.events, h.clock)
	return h
}

func TestMonitor_NotDueIsNoop(t *testing.T) {
	h := newHarness(t, 60, 10)
	h.clock.Advance(59 * time.Second)

	snap, err := h.monitor.CheckDraft(context.Background(), h.draftID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.PickIndex)
	assert.Empty(t, h.events.Events())
}

func TestMonitor_AutopicksBestAvailable(t *testing.T) {
	h := newHarness(t, 60, 10)
	ctx := context.Background()
	h.clock.Advance(60 * time.Second)

	snap, err := h.monitor.CheckDraft(ctx, h.draftID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.PickIndex)
	assert.Equal(t, "B", snap.OnClockParticipantID)

	picks, err := h.store.ListPickRecords(ctx, h.draftID)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, "pl-01", picks[0].PlayerID)
	assert.Equal(t, "A", picks[0].ParticipantID)
	assert.True(t, picks[0].Autopick)
	assert.Contains(t, picks[0].IdempotencyKey, "AUTOPICK-"+h.draftID.String()+"-1-")
}

func TestMonitor_SkipsDraftedPlayers(t *testing.T) {
	h := newHarness(t, 60, 10)
	ctx := context.Background()
	picks := pick.NewApp(h.store, h.events, h.clock, 3)

	_, err := picks.ApplyPick(ctx, pick.MakePickRequest{DraftID: h.draftID, ParticipantID: "A", PlayerID: "pl-01", IdempotencyKey: "k1"})
	require.NoError(t, err)

	h.clock.Advance(2 * time.Minute)
	_, err = h.monitor.CheckDraft(ctx, h.draftID)
	require.NoError(t, err)

	recs, err := h.store.ListPickRecords(ctx, h.draftID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "pl-02", recs[1].PlayerID)
	assert.Equal(t, "B", recs[1].ParticipantID)
}

func TestMonitor_PausedDraftIsNotAutopicked(t *testing.T) {
	h := newHarness(t, 60, 10)
	ctx := context.Background()

	s, err := h.store.GetSnapshot(ctx, h.draftID)
	require.NoError(t, err)
	paused, err := state.Pause(*s, h.clock.Now())
	require.NoError(t, err)
	require.NoError(t, h.store.WriteSnapshot(ctx, &paused, s.Version))

	h.clock.Advance(time.Hour)
	snap, err := h.monitor.CheckDraft(ctx, h.draftID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftPhasePaused, snap.Phase)
	assert.Equal(t, 1, snap.PickIndex)
}

func TestMonitor_NoPlayersAvailable(t *testing.T) {
	h := newHarness(t, 0, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.monitor.CheckDraft(ctx, h.draftID)
		require.NoError(t, err)
	}

	before, err := h.store.GetSnapshot(ctx, h.draftID)
	require.NoError(t, err)

	snap, err := h.monitor.CheckDraft(ctx, h.draftID)
	require.ErrorIs(t, err, drafterr.ErrNoPlayersAvailable)
	assert.Equal(t, before, snap)
	assert.Equal(t, models.DraftPhaseDrafting, snap.Phase)
	assert.Equal(t, 4, snap.PickIndex)
	assert.Equal(t, 1, h.events.Count(events.AutopickFailed))
}

func TestMonitor_ZeroPickTimeDraftCompletes(t *testing.T) {
	h := newHarness(t, 0, 20)
	ctx := context.Background()

	var snap *models.DraftState
	var err error
	for i := 0; i < 8; i++ {
		snap, err = h.monitor.CheckDraft(ctx, h.draftID)
		require.NoError(t, err)
	}
	assert.Equal(t, models.DraftPhaseComplete, snap.Phase)
	assert.Empty(t, snap.OnClockParticipantID)

	picks, err := h.store.ListPickRecords(ctx, h.draftID)
	require.NoError(t, err)
	require.Len(t, picks, 8)

	seen := map[string]bool{}
	var order []string
	for i, p := range picks {
		assert.Equal(t, i+1, p.Overall)
		assert.False(t, seen[p.PlayerID], "player %s drafted twice", p.PlayerID)
		seen[p.PlayerID] = true
		order = append(order, p.ParticipantID)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "D", "C", "B", "A"}, order)

	again, err := h.monitor.CheckDraft(ctx, h.draftID)
	require.NoError(t, err)
	assert.Equal(t, snap.Version, again.Version)
}

func TestMonitor_DraftNotStarted(t *testing.T) {
	h := newHarness(t, 60, 1)
	_, err := h.monitor.CheckDraft(context.Background(), uuid.New())
	require.ErrorIs(t, err, drafterr.ErrDraftNotStarted)
}

func TestBestAvailableStrategy_Ordering(t *testing.T) {
	store := repository.NewMemoryStore()
	store.PutPlayers([]models.Player{
		{ID: "c", Eligible: true, Rating: 90, FantasyPoints: 200},
		{ID: "b", Eligible: true, Rating: 90, FantasyPoints: 250},
		{ID: "a", Eligible: true, Rating: 90, FantasyPoints: 250},
		{ID: "x", Eligible: false, Rating: 99},
		{ID: "d", Eligible: true, Rating: 80, FantasyPoints: 400},
	})
	strat := NewBestAvailableStrategy(store)
	ctx := context.Background()

	var got []string
	var drafted []string
	for i := 0; i < 4; i++ {
		p, err := strat.SelectPlayer(ctx, uuid.Nil, "A", drafted)
		require.NoError(t, err)
		got = append(got, p.ID)
		drafted = append(drafted, p.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)

	_, err := strat.SelectPlayer(ctx, uuid.Nil, "A", drafted)
	require.ErrorIs(t, err, drafterr.ErrNoPlayersAvailable)
}

func TestAutopickKey_UniqueAtSameInstant(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

	a := AutopickKey(id, 3, now)
	b := AutopickKey(id, 3, now)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, fmt.Sprintf("AUTOPICK-%s-3-%d-", id, now.UnixNano())))
}
