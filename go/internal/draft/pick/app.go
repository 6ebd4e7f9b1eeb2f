package pick

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
	"github.com/mcdev12/livedraft/go/internal/draft/state"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// PickRepository defines what the pick app layer needs from the draft store
type PickRepository interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	GetSnapshot(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	WriteSnapshot(ctx context.Context, s *models.DraftState, expectedVersion int64) error
	AppendPickRecord(ctx context.Context, rec models.PickRecord) error
	ListPickRecords(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error)
}

const DefaultMaxAttempts = 3

// App validates and applies picks. It is the only code path that advances a
// draft's pick index.
type App struct {
	repo        PickRepository
	events      events.Sink
	clock       clockwork.Clock
	maxAttempts int
}

// NewApp creates a new pick App
func NewApp(repo PickRepository, sink events.Sink, clock clockwork.Clock, maxAttempts int) *App {
	if sink == nil {
		sink = events.Discard{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &App{
		repo:        repo,
		events:      sink,
		clock:       clock,
		maxAttempts: maxAttempts,
	}
}

// ApplyPick applies a participant's pick while their window is open.
func (a *App) ApplyPick(ctx context.Context, req MakePickRequest) (*Result, error) {
	return a.apply(ctx, req, modeManual)
}

// ApplyAutopick applies a pick chosen by policy for the on-clock participant.
// It is only accepted once the window has expired.
func (a *App) ApplyAutopick(ctx context.Context, req MakePickRequest) (*Result, error) {
	return a.apply(ctx, req, modeAutopick)
}

func (a *App) apply(ctx context.Context, req MakePickRequest, m mode) (*Result, error) {
	if req.IdempotencyKey == "" {
		return nil, drafterr.ErrMissingIdempotencyKey
	}

	logger := log.With().
		Str("draft_id", req.DraftID.String()).
		Str("participant_id", req.ParticipantID).
		Str("player_id", req.PlayerID).
		Bool("autopick", m == modeAutopick).
		Logger()

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		snap, err := a.repo.GetSnapshot(ctx, req.DraftID)
		if errors.Is(err, drafterr.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("draft %s: %w", req.DraftID, drafterr.ErrDraftNotStarted)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}

		draft, err := a.repo.GetDraft(ctx, req.DraftID)
		if err != nil {
			return nil, fmt.Errorf("failed to get draft: %w", err)
		}
		params := state.ParamsFor(draft)

		picks, err := a.repo.ListPickRecords(ctx, req.DraftID)
		if err != nil {
			return nil, fmt.Errorf("failed to list picks: %w", err)
		}

		snap, err = Reconcile(ctx, a.repo, a.events, a.clock, params, snap, picks)
		if errors.Is(err, drafterr.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		if isReplay(snap, picks, req) {
			logger.Debug().Str("idempotency_key", req.IdempotencyKey).Msg("duplicate pick submission")
			return &Result{State: snap, Replayed: true}, nil
		}

		now := a.clock.Now().UTC()
		if err := validate(snap, picks, req, m, now); err != nil {
			logger.Debug().Err(err).Int("pick_index", snap.PickIndex).Msg("pick rejected")
			return &Result{State: snap}, err
		}

		rec := models.PickRecord{
			ID:             models.PickRecordID(req.DraftID, snap.PickIndex),
			DraftID:        req.DraftID,
			ParticipantID:  req.ParticipantID,
			PlayerID:       req.PlayerID,
			Round:          snap.Round,
			Overall:        snap.PickIndex,
			IdempotencyKey: req.IdempotencyKey,
			Autopick:       m == modeAutopick,
			PickedAt:       now,
		}
		if err := a.repo.AppendPickRecord(ctx, rec); err != nil {
			switch {
			case errors.Is(err, drafterr.ErrDuplicatePickIndex):
				// Another writer recorded this index without advancing the
				// snapshot yet. Reconcile on the next read rolls it forward.
				logger.Error().Err(err).Int("pick_index", snap.PickIndex).Msg("pick index already recorded")
				lastErr = err
				continue
			case errors.Is(err, drafterr.ErrPlayerAlreadyDrafted):
				lastErr = err
				continue
			default:
				return nil, fmt.Errorf("failed to append pick record: %w", err)
			}
		}

		next := state.Next(*snap, params, now)
		next.LastAcceptedIdempotencyKey = req.IdempotencyKey
		if err := a.repo.WriteSnapshot(ctx, &next, snap.Version); err != nil {
			// The record is written. Whatever happened to the snapshot, re-read
			// before deciding: reconcile rolls the record forward if nobody
			// else advanced the draft.
			if errors.Is(err, drafterr.ErrVersionConflict) {
				logger.Debug().Int64("version", snap.Version).Msg("snapshot version conflict")
			} else {
				logger.Warn().Err(err).Msg("snapshot write status unknown")
			}
			lastErr = err
			continue
		}

		logger.Info().
			Int("pick_index", rec.Overall).
			Int64("version", next.Version).
			Msg("pick accepted")
		emitAdvance(ctx, a.events, params, rec, &next)
		return &Result{State: &next, Pick: &rec}, nil
	}

	fresh, err := a.repo.GetSnapshot(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read snapshot: %w", err)
	}
	if errors.Is(lastErr, drafterr.ErrPlayerAlreadyDrafted) || errors.Is(lastErr, drafterr.ErrDuplicatePickIndex) {
		return &Result{State: fresh}, lastErr
	}
	return &Result{State: fresh}, fmt.Errorf("gave up after %d attempts: %w", a.maxAttempts, drafterr.ErrVersionConflict)
}

// isReplay reports whether req is a resubmission of an accepted pick. An older
// record only counts when the same participant picked the same player with the
// key; anything else goes through validation.
func isReplay(snap *models.DraftState, picks []models.PickRecord, req MakePickRequest) bool {
	if snap.LastAcceptedIdempotencyKey == req.IdempotencyKey {
		return true
	}
	for _, p := range picks {
		if p.IdempotencyKey == req.IdempotencyKey &&
			p.ParticipantID == req.ParticipantID &&
			p.PlayerID == req.PlayerID {
			return true
		}
	}
	return false
}

func validate(snap *models.DraftState, picks []models.PickRecord, req MakePickRequest, m mode, now time.Time) error {
	if snap.Phase != models.DraftPhaseDrafting {
		return fmt.Errorf("draft is %s: %w", snap.Phase, drafterr.ErrDraftNotActive)
	}
	if snap.OnClockParticipantID != req.ParticipantID {
		return fmt.Errorf("%s is on the clock: %w", snap.OnClockParticipantID, drafterr.ErrNotYourTurn)
	}
	switch m {
	case modeManual:
		if !now.Before(snap.DeadlineAt) {
			return fmt.Errorf("deadline was %s: %w", snap.DeadlineAt.Format(time.RFC3339), drafterr.ErrPickWindowExpired)
		}
	case modeAutopick:
		if now.Before(snap.DeadlineAt) {
			return fmt.Errorf("deadline is %s: %w", snap.DeadlineAt.Format(time.RFC3339), drafterr.ErrPickWindowOpen)
		}
	}
	if req.PlayerID == "" {
		return fmt.Errorf("player id is required: %w", drafterr.ErrInvalidArgument)
	}
	for _, p := range picks {
		if p.PlayerID == req.PlayerID {
			return fmt.Errorf("player %s went at pick %d: %w", req.PlayerID, p.Overall, drafterr.ErrPlayerAlreadyDrafted)
		}
	}
	return nil
}

// ListPicks returns the pick log of a draft in overall order.
func (a *App) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error) {
	picks, err := a.repo.ListPickRecords(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	return picks, nil
}
