package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/pick"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// DraftReader is what the monitor reads before deciding to autopick.
type DraftReader interface {
	GetSnapshot(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	ListPickRecords(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error)
}

// AutoPicker applies a synthesized pick through the normal pick path.
type AutoPicker interface {
	ApplyAutopick(ctx context.Context, req pick.MakePickRequest) (*pick.Result, error)
}

// Monitor autopicks for drafts whose pick window has expired. It holds no
// draft state; every check re-reads the snapshot.
type Monitor struct {
	reader DraftReader
	picker AutoPicker
	strat  AutoPickStrategy
	events events.Sink
	clock  clockwork.Clock
}

func NewMonitor(reader DraftReader, picker AutoPicker, strat AutoPickStrategy, sink events.Sink, clock clockwork.Clock) *Monitor {
	if sink == nil {
		sink = events.Discard{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{
		reader: reader,
		picker: picker,
		strat:  strat,
		events: sink,
		clock:  clock,
	}
}

// CheckDraft autopicks for the on-clock participant if the draft is drafting
// and its deadline has passed, and returns the resulting snapshot. A draft
// that is not due is returned as read.
func (m *Monitor) CheckDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	snap, err := m.reader.GetSnapshot(ctx, draftID)
	if errors.Is(err, drafterr.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("draft %s: %w", draftID, drafterr.ErrDraftNotStarted)
	}
	if err != nil {
		return nil, err
	}

	now := m.clock.Now().UTC()
	if snap.Phase != models.DraftPhaseDrafting || !snap.Expired(now) {
		return snap, nil
	}

	picks, err := m.reader.ListPickRecords(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	drafted := make([]string, 0, len(picks))
	for _, p := range picks {
		drafted = append(drafted, p.PlayerID)
	}

	player, err := m.strat.SelectPlayer(ctx, draftID, snap.OnClockParticipantID, drafted)
	if errors.Is(err, drafterr.ErrNoPlayersAvailable) {
		log.Warn().
			Str("draft_id", draftID.String()).
			Str("participant_id", snap.OnClockParticipantID).
			Int("pick_index", snap.PickIndex).
			Msg("autopick failed: no eligible players left")
		m.events.Emit(ctx, events.Event{
			DraftID: draftID,
			Type:    events.AutopickFailed,
			Payload: events.AutopickFailedPayload{
				DraftID:       draftID.String(),
				ParticipantID: snap.OnClockParticipantID,
				Overall:       snap.PickIndex,
				Reason:        drafterr.Kind(err),
				FailedAt:      now,
			},
		})
		return snap, err
	}
	if err != nil {
		return nil, fmt.Errorf("auto-pick strategy failed: %w", err)
	}

	res, err := m.picker.ApplyAutopick(ctx, pick.MakePickRequest{
		DraftID:        draftID,
		ParticipantID:  snap.OnClockParticipantID,
		PlayerID:       player.ID,
		IdempotencyKey: AutopickKey(draftID, snap.PickIndex, now),
	})
	if err != nil {
		if drafterr.IsValidation(err) && res != nil {
			// Someone else moved the draft between our read and the apply.
			log.Debug().Err(err).Str("draft_id", draftID.String()).Msg("autopick superseded")
			return res.State, nil
		}
		return nil, fmt.Errorf("auto-pick failed: %w", err)
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Str("participant_id", snap.OnClockParticipantID).
		Str("player_id", player.ID).
		Int("pick_index", snap.PickIndex).
		Msg("autopick applied")
	return res.State, nil
}
