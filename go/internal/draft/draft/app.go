package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/order"
	"github.com/mcdev12/livedraft/go/internal/draft/pick"
	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/draft/state"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// DraftRepository defines what the draft app layer needs from the draft store
type DraftRepository interface {
	CreateDraft(ctx context.Context, req repository.CreateDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	SaveDraftOrder(ctx context.Context, id uuid.UUID, draftOrder []string, settings models.DraftSettings) error
	GetSnapshot(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	CreateSnapshot(ctx context.Context, s *models.DraftState) error
	WriteSnapshot(ctx context.Context, s *models.DraftState, expectedVersion int64) error
	ListPickRecords(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error)
}

// LeagueApp defines what the draft app needs from leagues
type LeagueApp interface {
	GetLeagueConfig(ctx context.Context, leagueID uuid.UUID) (*models.LeagueConfig, error)
	MarkLeaguePhase(ctx context.Context, leagueID uuid.UUID, phase models.LeaguePhase) error
}

// StateChecker runs the timeout check as part of a state read.
type StateChecker interface {
	CheckDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
}

// App handles draft lifecycle: start, pause, resume, reseed and cancel.
type App struct {
	repo     DraftRepository
	leagues  LeagueApp
	events   events.Sink
	clock    clockwork.Clock
	defaults Defaults
	checker  StateChecker
}

// NewApp creates a new draft App
func NewApp(repo DraftRepository, leagues LeagueApp, sink events.Sink, clock clockwork.Clock, defaults Defaults) *App {
	if sink == nil {
		sink = events.Discard{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if defaults.MaxAttempts <= 0 {
		defaults.MaxAttempts = pick.DefaultMaxAttempts
	}
	return &App{
		repo:     repo,
		leagues:  leagues,
		events:   sink,
		clock:    clock,
		defaults: defaults,
	}
}

// WithStateChecker makes GetState run the timeout check before returning.
func (a *App) WithStateChecker(c StateChecker) *App {
	a.checker = c
	return a
}

// CreateDraft creates a draft in the scheduled phase. It has no snapshot
// until it is started.
func (a *App) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	if req.Rounds < 0 || req.PickTimeSeconds < 0 {
		return nil, fmt.Errorf("rounds and pick time must not be negative: %w", drafterr.ErrInvalidArgument)
	}
	if _, err := a.leagues.GetLeagueConfig(ctx, req.LeagueID); err != nil {
		return nil, fmt.Errorf("failed to load league: %w", err)
	}

	snake := a.defaults.Snake
	if req.Snake != nil {
		snake = *req.Snake
	}
	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	d, err := a.repo.CreateDraft(ctx, repository.CreateDraftRequest{
		ID:       id,
		LeagueID: req.LeagueID,
		Settings: models.DraftSettings{
			Rounds:          req.Rounds,
			PickTimeSeconds: req.PickTimeSeconds,
			Snake:           snake,
			Instant:         req.Instant,
		},
		StartAt: req.StartAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().Str("draft_id", d.ID.String()).Str("league_id", req.LeagueID.String()).Msg("draft created")
	return d, nil
}

// GetDraft retrieves a draft by ID
func (a *App) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	d, err := a.repo.GetDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

// StartDraft seeds the first snapshot. It is idempotent: an existing snapshot
// is returned unchanged.
func (a *App) StartDraft(ctx context.Context, req StartDraftRequest) (*models.DraftState, error) {
	existing, err := a.repo.GetSnapshot(ctx, req.DraftID)
	if err == nil {
		log.Debug().Str("draft_id", req.DraftID.String()).Int64("version", existing.Version).Msg("draft already started")
		return existing, nil
	}
	if !errors.Is(err, drafterr.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	d, err := a.repo.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	cfg, err := a.leagues.GetLeagueConfig(ctx, d.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load league: %w", err)
	}

	now := a.clock.Now().UTC()
	if err := a.checkStartGate(d, cfg, req, now); err != nil {
		return nil, err
	}

	built, err := order.Build(order.Input{Persisted: d.Order, Config: *cfg})
	if err != nil {
		return nil, err
	}
	settings := a.resolveSettings(d.Settings, cfg.League)

	// Persisted before seeding so every later transition reads the same order.
	if err := a.repo.SaveDraftOrder(ctx, d.ID, built.Order, settings); err != nil {
		return nil, fmt.Errorf("failed to persist draft order: %w", err)
	}
	d.Order = built.Order
	d.Settings = settings
	params := state.ParamsFor(d)

	snap, err := state.Seed(d.ID, params, now)
	if err != nil {
		return nil, err
	}
	if err := a.repo.CreateSnapshot(ctx, snap); err != nil {
		if errors.Is(err, drafterr.ErrSnapshotExists) {
			// Lost the race to a concurrent start.
			return a.repo.GetSnapshot(ctx, d.ID)
		}
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	if err := a.leagues.MarkLeaguePhase(ctx, d.LeagueID, models.LeaguePhaseDrafting); err != nil {
		log.Warn().Err(err).Str("league_id", d.LeagueID.String()).Msg("failed to mark league drafting")
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("order_source", string(built.Source)).
		Int("participants", len(built.Order)).
		Int("rounds", settings.Rounds).
		Msg("draft started")

	a.events.Emit(ctx, events.Event{
		DraftID: d.ID,
		Type:    events.DraftStarted,
		Payload: events.DraftStartedPayload{
			DraftID:     d.ID.String(),
			LeagueID:    d.LeagueID.String(),
			Order:       built.Order,
			Snake:       settings.Snake,
			StartedAt:   now,
			TotalRounds: settings.Rounds,
			TotalPicks:  params.TotalPicks(),
		},
	})
	pick.EmitPickStarted(ctx, a.events, params, snap)
	return snap, nil
}

func (a *App) checkStartGate(d *models.Draft, cfg *models.LeagueConfig, req StartDraftRequest, now time.Time) error {
	startAt := d.StartAt
	if startAt == nil {
		startAt = cfg.League.DraftStartAt
	}
	if startAt == nil || !now.Before(*startAt) {
		return nil
	}
	if !req.Force {
		return fmt.Errorf("draft opens at %s: %w", startAt.Format(time.RFC3339), drafterr.ErrDraftNotOpen)
	}
	return authorize(cfg, req.ActorID)
}

func (a *App) resolveSettings(s models.DraftSettings, league models.League) models.DraftSettings {
	out := s
	if out.Rounds <= 0 {
		out.Rounds = league.DraftRounds
	}
	if out.Rounds <= 0 {
		out.Rounds = a.defaults.Rounds
	}
	switch {
	case out.Instant:
		out.PickTimeSeconds = 0
	case out.PickTimeSeconds <= 0:
		out.PickTimeSeconds = league.PickTimeSeconds
		if out.PickTimeSeconds <= 0 {
			out.PickTimeSeconds = a.defaults.PickTimeSeconds
		}
	}
	return out
}

// PauseDraft stops the clock. Legal only while drafting.
func (a *App) PauseDraft(ctx context.Context, req LifecycleRequest) (*models.DraftState, error) {
	next, err := a.transition(ctx, req.DraftID, func(cur *models.DraftState, _ state.Params, now time.Time) (models.DraftState, error) {
		return state.Pause(*cur, now)
	})
	if err != nil {
		return nil, err
	}
	a.events.Emit(ctx, events.Event{
		DraftID: next.DraftID,
		Type:    events.DraftPaused,
		Payload: events.DraftPausedPayload{DraftID: next.DraftID.String(), PausedAt: next.ServerNow, Version: next.Version},
	})
	return next, nil
}

// ResumeDraft restarts the clock with a full pick window. Legal only while paused.
func (a *App) ResumeDraft(ctx context.Context, req LifecycleRequest) (*models.DraftState, error) {
	var params state.Params
	next, err := a.transition(ctx, req.DraftID, func(cur *models.DraftState, p state.Params, now time.Time) (models.DraftState, error) {
		params = p
		return state.Resume(*cur, p, now)
	})
	if err != nil {
		return nil, err
	}
	a.events.Emit(ctx, events.Event{
		DraftID: next.DraftID,
		Type:    events.DraftResumed,
		Payload: events.DraftResumedPayload{
			DraftID:    next.DraftID.String(),
			ResumedAt:  next.ServerNow,
			DeadlineAt: next.DeadlineAt,
			Version:    next.Version,
		},
	})
	pick.EmitPickStarted(ctx, a.events, params, next)
	return next, nil
}

// CancelDraft ends a draft that has not finished.
func (a *App) CancelDraft(ctx context.Context, req LifecycleRequest) (*models.DraftState, error) {
	if err := a.authorizeDraft(ctx, req.DraftID, req.ActorID); err != nil {
		return nil, err
	}
	next, err := a.transition(ctx, req.DraftID, func(cur *models.DraftState, _ state.Params, now time.Time) (models.DraftState, error) {
		return state.Cancel(*cur, now)
	})
	if err != nil {
		return nil, err
	}
	a.events.Emit(ctx, events.Event{
		DraftID: next.DraftID,
		Type:    events.DraftCanceled,
		Payload: events.DraftCanceledPayload{
			DraftID:    next.DraftID.String(),
			ActorID:    req.ActorID,
			CanceledAt: next.ServerNow,
			Version:    next.Version,
		},
	})
	return next, nil
}

// ForceReseed restarts the current pick's clock, and optionally puts the
// first participant back on the clock. Refused once any pick is recorded.
func (a *App) ForceReseed(ctx context.Context, req ForceReseedRequest) (*models.DraftState, error) {
	if err := a.authorizeDraft(ctx, req.DraftID, req.ActorID); err != nil {
		return nil, err
	}

	var params state.Params
	next, err := a.transition(ctx, req.DraftID, func(cur *models.DraftState, p state.Params, now time.Time) (models.DraftState, error) {
		picks, err := a.repo.ListPickRecords(ctx, req.DraftID)
		if err != nil {
			return *cur, fmt.Errorf("failed to list picks: %w", err)
		}
		if len(picks) > 0 {
			return *cur, fmt.Errorf("%d picks recorded: %w", len(picks), drafterr.ErrPicksRecorded)
		}
		params = p
		return state.Reseed(*cur, p, now, req.ResetOnClock)
	})
	if err != nil {
		return nil, err
	}

	log.Warn().
		Str("draft_id", next.DraftID.String()).
		Str("actor_id", req.ActorID).
		Bool("reset_on_clock", req.ResetOnClock).
		Msg("draft force-reseeded")

	a.events.Emit(ctx, events.Event{
		DraftID: next.DraftID,
		Type:    events.DraftReseeded,
		Payload: events.DraftReseededPayload{
			DraftID:       next.DraftID.String(),
			ActorID:       req.ActorID,
			ParticipantID: next.OnClockParticipantID,
			DeadlineAt:    next.DeadlineAt,
			Version:       next.Version,
		},
	})
	if next.Phase == models.DraftPhaseDrafting {
		pick.EmitPickStarted(ctx, a.events, params, next)
	}
	return next, nil
}

// GetState returns the snapshot with serverNow set to the current time. With a
// state checker attached, an expired pick is autopicked first.
func (a *App) GetState(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	var snap *models.DraftState
	var err error
	if a.checker != nil {
		snap, err = a.checker.CheckDraft(ctx, draftID)
		if errors.Is(err, drafterr.ErrNoPlayersAvailable) && snap != nil {
			err = nil
		}
	} else {
		snap, err = a.repo.GetSnapshot(ctx, draftID)
		if errors.Is(err, drafterr.ErrSnapshotNotFound) {
			err = fmt.Errorf("draft %s: %w", draftID, drafterr.ErrDraftNotStarted)
		}
	}
	if err != nil {
		return nil, err
	}

	out := *snap
	out.ServerNow = a.clock.Now().UTC()
	return &out, nil
}

// Upcoming previews the next n picks from the current snapshot.
func (a *App) Upcoming(ctx context.Context, snap *models.DraftState, n int) ([]order.Slot, error) {
	if snap.Phase.Terminal() {
		return nil, nil
	}
	d, err := a.repo.GetDraft(ctx, snap.DraftID)
	if err != nil {
		return nil, err
	}
	return order.Upcoming(snap.PickIndex, n, d.TotalPicks(), d.Order, d.Settings.Snake), nil
}

type transitionFunc func(cur *models.DraftState, p state.Params, now time.Time) (models.DraftState, error)

// transition applies fn to the current snapshot under a version-conditioned
// write, re-reading on conflict.
func (a *App) transition(ctx context.Context, draftID uuid.UUID, fn transitionFunc) (*models.DraftState, error) {
	d, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	params := state.ParamsFor(d)

	for attempt := 1; attempt <= a.defaults.MaxAttempts; attempt++ {
		cur, err := a.repo.GetSnapshot(ctx, draftID)
		if errors.Is(err, drafterr.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("draft %s: %w", draftID, drafterr.ErrDraftNotStarted)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}

		next, err := fn(cur, params, a.clock.Now().UTC())
		if err != nil {
			return nil, err
		}
		err = a.repo.WriteSnapshot(ctx, &next, cur.Version)
		if err == nil {
			log.Info().
				Str("draft_id", draftID.String()).
				Str("phase", string(next.Phase)).
				Int64("version", next.Version).
				Msg("draft transitioned")
			return &next, nil
		}
		if !errors.Is(err, drafterr.ErrVersionConflict) {
			log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("snapshot write status unknown")
		}
	}
	return nil, fmt.Errorf("draft %s gave up after %d attempts: %w", draftID, a.defaults.MaxAttempts, drafterr.ErrVersionConflict)
}

func (a *App) authorizeDraft(ctx context.Context, draftID uuid.UUID, actorID string) error {
	d, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return err
	}
	cfg, err := a.leagues.GetLeagueConfig(ctx, d.LeagueID)
	if err != nil {
		return fmt.Errorf("failed to load league: %w", err)
	}
	return authorize(cfg, actorID)
}

func authorize(cfg *models.LeagueConfig, actorID string) error {
	if actorID == OperatorActor {
		return nil
	}
	if actorID != "" && actorID == cfg.League.CommissionerID {
		return nil
	}
	return fmt.Errorf("actor %q is not the commissioner: %w", actorID, drafterr.ErrPermissionDenied)
}
