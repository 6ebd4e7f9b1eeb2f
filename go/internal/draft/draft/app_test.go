package draft

import (
	"context"
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
	"github.com/mcdev12/livedraft/go/internal/models"
)

const commissioner = "u1"

type fixture struct {
	store    *repository.MemoryStore
	clock    *clockwork.FakeClock
	events   *events.Recorder
	app      *App
	leagueID uuid.UUID
	teams    []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    repository.NewMemoryStore(),
		clock:    clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)),
		events:   &events.Recorder{},
		leagueID: uuid.New(),
	}

	cfg := models.LeagueConfig{
		League: models.League{
			ID:             f.leagueID,
			Name:           "Test League",
			CommissionerID: commissioner,
			Phase:          models.LeaguePhaseScheduled,
			MaxTeams:       4,
			DraftRounds:    2,
		},
	}
	joined := f.clock.Now().Add(-48 * time.Hour)
	for i, owner := range []string{"u1", "u2", "u3", "u4"} {
		team := models.FantasyTeam{ID: uuid.New(), LeagueID: f.leagueID, OwnerID: owner, Name: owner + "'s team"}
		cfg.Teams = append(cfg.Teams, team)
		cfg.Members = append(cfg.Members, models.LeagueMember{
			LeagueID: f.leagueID,
			UserID:   owner,
			JoinedAt: joined.Add(time.Duration(i) * time.Minute),
		})
		f.teams = append(f.teams, team.ID.String())
	}
	f.store.PutLeague(cfg)

	f.app = NewApp(f.store, f.store, f.events, f.clock, Defaults{Rounds: 15, PickTimeSeconds: 90, Snake: true})
	return f
}

func (f *fixture) createDraft(t *testing.T, req CreateDraftRequest) *models.Draft {
	t.Helper()
	req.LeagueID = f.leagueID
	d, err := f.app.CreateDraft(context.Background(), req)
	require.NoError(t, err)
	return d
}

func (f *fixture) league(t *testing.T) models.League {
	t.Helper()
	cfg, err := f.store.GetLeagueConfig(context.Background(), f.leagueID)
	require.NoError(t, err)
	return cfg.League
}

func TestStartDraft_SeedsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t, CreateDraftRequest{})

	snap, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID, ActorID: commissioner})
	require.NoError(t, err)

	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, models.DraftPhaseDrafting, snap.Phase)
	assert.Equal(t, 1, snap.PickIndex)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, 4, snap.PicksPerRound)
	assert.Equal(t, f.teams[0], snap.OnClockParticipantID)
	assert.Equal(t, f.clock.Now().Add(90*time.Second), snap.DeadlineAt)

	stored, err := f.store.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, f.teams, stored.Order)
	assert.Equal(t, 2, stored.Settings.Rounds, "league rounds fill the unset draft setting")
	assert.Equal(t, 90, stored.Settings.PickTimeSeconds)
	assert.True(t, stored.Settings.Snake)

	assert.Equal(t, models.LeaguePhaseDrafting, f.league(t).Phase)
	assert.Equal(t, 1, f.events.Count(events.DraftStarted))
	assert.Equal(t, 1, f.events.Count(events.PickStarted))
}

func TestStartDraft_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t, CreateDraftRequest{PickTimeSeconds: 30})

	first, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	second, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.events.Count(events.DraftStarted))
}

func TestStartDraft_UsesCommissionerOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.store.GetLeagueConfig(ctx, f.leagueID)
	require.NoError(t, err)
	cfg.League.DraftOrderOverride = []string{"u3", "u1", f.teams[3], "ghost"}
	cfg.League.MaxTeams = 0
	f.store.PutLeague(*cfg)

	d := f.createDraft(t, CreateDraftRequest{Rounds: 1})
	snap, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)
	assert.Equal(t, f.teams[2], snap.OnClockParticipantID)

	stored, err := f.store.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.teams[2], f.teams[0], f.teams[3], "ghost"}, stored.Order)
	assert.Equal(t, 4, snap.PicksPerRound)
}

func TestStartDraft_EmptyLeagueIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	leagueID := uuid.New()
	f.store.PutLeague(models.LeagueConfig{League: models.League{ID: leagueID, CommissionerID: commissioner}})
	d, err := f.app.CreateDraft(ctx, CreateDraftRequest{LeagueID: leagueID})
	require.NoError(t, err)

	_, err = f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.ErrorIs(t, err, drafterr.ErrConfiguration)

	_, err = f.store.GetSnapshot(ctx, d.ID)
	require.ErrorIs(t, err, drafterr.ErrSnapshotNotFound)
	assert.Empty(t, f.events.Events())
}

func TestStartDraft_StartTimeGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opens := f.clock.Now().Add(time.Hour)
	d := f.createDraft(t, CreateDraftRequest{StartAt: &opens})

	_, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID, ActorID: commissioner})
	require.ErrorIs(t, err, drafterr.ErrDraftNotOpen)

	_, err = f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID, ActorID: "u2", Force: true})
	require.ErrorIs(t, err, drafterr.ErrPermissionDenied)

	snap, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID, ActorID: commissioner, Force: true})
	require.NoError(t, err)
	assert.Equal(t, models.DraftPhaseDrafting, snap.Phase)
}

func TestStartDraft_LeagueStartTimeFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.store.GetLeagueConfig(ctx, f.leagueID)
	require.NoError(t, err)
	opens := f.clock.Now().Add(time.Minute)
	cfg.League.DraftStartAt = &opens
	f.store.PutLeague(*cfg)

	d := f.createDraft(t, CreateDraftRequest{})
	_, err = f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.ErrorIs(t, err, drafterr.ErrDraftNotOpen)

	f.clock.Advance(time.Minute)
	_, err = f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)
}

func TestStartDraft_OperatorCanForce(t *testing.T) {
	f := newFixture(t)
	opens := f.clock.Now().Add(time.Hour)
	d := f.createDraft(t, CreateDraftRequest{StartAt: &opens})

	_, err := f.app.StartDraft(context.Background(), StartDraftRequest{DraftID: d.ID, ActorID: OperatorActor, Force: true})
	require.NoError(t, err)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t, CreateDraftRequest{PickTimeSeconds: 60})
	started, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)

	_, err = f.app.ResumeDraft(ctx, LifecycleRequest{DraftID: d.ID})
	require.ErrorIs(t, err, drafterr.ErrInvalidTransition)

	f.clock.Advance(20 * time.Second)
	paused, err := f.app.PauseDraft(ctx, LifecycleRequest{DraftID: d.ID})
	require.NoError(t, err)
	assert.Equal(t, models.DraftPhasePaused, paused.Phase)
	assert.Equal(t, started.Version+1, paused.Version)
	assert.Equal(t, started.PickIndex, paused.PickIndex)
	assert.Equal(t, started.OnClockParticipantID, paused.OnClockParticipantID)

	_, err = f.app.PauseDraft(ctx, LifecycleRequest{DraftID: d.ID})
	require.ErrorIs(t, err, drafterr.ErrInvalidTransition)

	f.clock.Advance(10 * time.Minute)
	resumed, err := f.app.ResumeDraft(ctx, LifecycleRequest{DraftID: d.ID})
	require.NoError(t, err)
	assert.Equal(t, models.DraftPhaseDrafting, resumed.Phase)
	assert.Equal(t, paused.Version+1, resumed.Version)
	assert.Equal(t, f.clock.Now().Add(60*time.Second), resumed.DeadlineAt)

	assert.Equal(t, 1, f.events.Count(events.DraftPaused))
	assert.Equal(t, 1, f.events.Count(events.DraftResumed))
	assert.Equal(t, 2, f.events.Count(events.PickStarted))
}

func TestLifecycle_NotStarted(t *testing.T) {
	f := newFixture(t)
	d := f.createDraft(t, CreateDraftRequest{})

	_, err := f.app.PauseDraft(context.Background(), LifecycleRequest{DraftID: d.ID})
	require.ErrorIs(t, err, drafterr.ErrDraftNotStarted)

	_, err = f.app.GetState(context.Background(), d.ID)
	require.ErrorIs(t, err, drafterr.ErrDraftNotStarted)
}

func TestCancelDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t, CreateDraftRequest{})
	_, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)

	_, err = f.app.CancelDraft(ctx, LifecycleRequest{DraftID: d.ID, ActorID: "u3"})
	require.ErrorIs(t, err, drafterr.ErrPermissionDenied)

	canceled, err := f.app.CancelDraft(ctx, LifecycleRequest{DraftID: d.ID, ActorID: commissioner})
	require.NoError(t, err)
	assert.Equal(t, models.DraftPhaseCanceled, canceled.Phase)
	assert.Equal(t, int64(2), canceled.Version)

	_, err = f.app.CancelDraft(ctx, LifecycleRequest{DraftID: d.ID, ActorID: commissioner})
	require.ErrorIs(t, err, drafterr.ErrInvalidTransition)
	_, err = f.app.ResumeDraft(ctx, LifecycleRequest{DraftID: d.ID})
	require.ErrorIs(t, err, drafterr.ErrInvalidTransition)
	assert.Equal(t, 1, f.events.Count(events.DraftCanceled))
}

func TestForceReseed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t, CreateDraftRequest{PickTimeSeconds: 60})
	started, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)

	_, err = f.app.ForceReseed(ctx, ForceReseedRequest{DraftID: d.ID, ActorID: "u4"})
	require.ErrorIs(t, err, drafterr.ErrPermissionDenied)

	f.clock.Advance(5 * time.Minute)
	reseeded, err := f.app.ForceReseed(ctx, ForceReseedRequest{DraftID: d.ID, ActorID: commissioner, ResetOnClock: true})
	require.NoError(t, err)
	assert.Equal(t, started.Version+1, reseeded.Version)
	assert.Equal(t, f.clock.Now().Add(60*time.Second), reseeded.DeadlineAt)
	assert.Equal(t, f.teams[0], reseeded.OnClockParticipantID)
	assert.Equal(t, 1, reseeded.PickIndex)
	assert.Equal(t, 1, f.events.Count(events.DraftReseeded))

	picks := pick.NewApp(f.store, f.events, f.clock, 3)
	_, err = picks.ApplyPick(ctx, pick.MakePickRequest{DraftID: d.ID, ParticipantID: f.teams[0], PlayerID: "p1", IdempotencyKey: "k1"})
	require.NoError(t, err)

	_, err = f.app.ForceReseed(ctx, ForceReseedRequest{DraftID: d.ID, ActorID: OperatorActor})
	require.ErrorIs(t, err, drafterr.ErrPicksRecorded)
}

func TestGetState_RefreshesServerNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t, CreateDraftRequest{})
	started, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)

	f.clock.Advance(15 * time.Second)
	st, err := f.app.GetState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), st.ServerNow)
	assert.Equal(t, started.Version, st.Version)

	stored, err := f.store.GetSnapshot(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ServerNow, stored.ServerNow, "state reads do not write")

	upcoming, err := f.app.Upcoming(ctx, st, 5)
	require.NoError(t, err)
	require.Len(t, upcoming, 5)
	assert.Equal(t, f.teams[3], upcoming[3].ParticipantID)
	assert.Equal(t, f.teams[3], upcoming[4].ParticipantID)
}

type stubChecker struct {
	calls int
	store *repository.MemoryStore
}

func (c *stubChecker) CheckDraft(ctx context.Context, id uuid.UUID) (*models.DraftState, error) {
	c.calls++
	s, err := c.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return s, drafterr.ErrNoPlayersAvailable
}

func TestGetState_RunsStateChecker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checker := &stubChecker{store: f.store}
	f.app.WithStateChecker(checker)

	d := f.createDraft(t, CreateDraftRequest{})
	_, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: d.ID})
	require.NoError(t, err)

	st, err := f.app.GetState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls)
	assert.Equal(t, 1, st.PickIndex)
}

func TestLeaguePhaseMirror(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t, CreateDraftRequest{})

	mirror := NewLeaguePhaseMirror(f.store, f.store)
	mirror.Emit(ctx, events.Event{DraftID: d.ID, Type: events.PickMade})
	assert.Equal(t, models.LeaguePhaseScheduled, f.league(t).Phase)

	mirror.Emit(ctx, events.Event{DraftID: d.ID, Type: events.DraftCompleted})
	assert.Equal(t, models.LeaguePhaseComplete, f.league(t).Phase)
}

func TestCreateDraft_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.app.CreateDraft(ctx, CreateDraftRequest{LeagueID: f.leagueID, Rounds: -1})
	require.ErrorIs(t, err, drafterr.ErrInvalidArgument)

	_, err = f.app.CreateDraft(ctx, CreateDraftRequest{LeagueID: uuid.New()})
	require.ErrorIs(t, err, drafterr.ErrLeagueNotFound)

	linear := false
	d, err := f.app.CreateDraft(ctx, CreateDraftRequest{LeagueID: f.leagueID, Snake: &linear})
	require.NoError(t, err)
	assert.False(t, d.Settings.Snake)
}

func TestStartDraft_InstantDraftHasNoClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("instant"))
	d, err := f.app.CreateDraft(ctx, CreateDraftRequest{ID: id, LeagueID: f.leagueID, Instant: true})
	require.NoError(t, err)
	assert.Equal(t, id, d.ID)

	snap, err := f.app.StartDraft(ctx, StartDraftRequest{DraftID: id, ActorID: commissioner})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().UTC(), snap.DeadlineAt)
	assert.True(t, snap.Expired(f.clock.Now()))

	stored, err := f.store.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Settings.PickTimeSeconds)
	assert.True(t, stored.Settings.Instant)
}
