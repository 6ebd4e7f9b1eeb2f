package pick

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/state"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// Reconcile rolls the snapshot forward when a pick record exists for the
// current pick index. That happens when a writer recorded the pick and then
// failed to advance the snapshot. The returned snapshot is what the caller
// should validate against.
func Reconcile(
	ctx context.Context,
	repo PickRepository,
	sink events.Sink,
	clock clockwork.Clock,
	params state.Params,
	snap *models.DraftState,
	picks []models.PickRecord,
) (*models.DraftState, error) {
	for {
		dangling := findOverall(picks, snap.PickIndex)
		if dangling == nil || snap.Phase.Terminal() {
			return snap, nil
		}

		now := clock.Now().UTC()
		next := state.Next(*snap, params, now)
		next.LastAcceptedIdempotencyKey = dangling.IdempotencyKey
		if snap.Phase == models.DraftPhasePaused && next.Phase != models.DraftPhaseComplete {
			next.Phase = models.DraftPhasePaused
		}

		err := repo.WriteSnapshot(ctx, &next, snap.Version)
		switch {
		case err == nil:
			log.Warn().
				Str("draft_id", snap.DraftID.String()).
				Int("pick_index", dangling.Overall).
				Int64("version", next.Version).
				Msg("rolled snapshot forward over recorded pick")
			emitAdvance(ctx, sink, params, *dangling, &next)
			snap = &next
		case errors.Is(err, drafterr.ErrVersionConflict):
			fresh, gerr := repo.GetSnapshot(ctx, snap.DraftID)
			if gerr != nil {
				return nil, fmt.Errorf("failed to re-read snapshot: %w", gerr)
			}
			if fresh.Version <= snap.Version {
				return nil, fmt.Errorf("snapshot did not move after conflict: %w", drafterr.ErrVersionConflict)
			}
			snap = fresh
		default:
			return nil, fmt.Errorf("failed to roll snapshot forward: %w", err)
		}
	}
}

func findOverall(picks []models.PickRecord, overall int) *models.PickRecord {
	for i := range picks {
		if picks[i].Overall == overall {
			return &picks[i]
		}
	}
	return nil
}

// emitAdvance publishes the events that follow a snapshot advance.
func emitAdvance(ctx context.Context, sink events.Sink, params state.Params, rec models.PickRecord, next *models.DraftState) {
	sink.Emit(ctx, events.Event{
		DraftID: rec.DraftID,
		Type:    events.PickMade,
		Payload: events.PickMadePayload{
			DraftID:       rec.DraftID.String(),
			PickID:        rec.ID,
			ParticipantID: rec.ParticipantID,
			PlayerID:      rec.PlayerID,
			Round:         rec.Round,
			Overall:       rec.Overall,
			Autopick:      rec.Autopick,
			Version:       next.Version,
			MadeAt:        rec.PickedAt,
		},
	})

	switch next.Phase {
	case models.DraftPhaseComplete:
		sink.Emit(ctx, events.Event{
			DraftID: next.DraftID,
			Type:    events.DraftCompleted,
			Payload: events.DraftCompletedPayload{
				DraftID:     next.DraftID.String(),
				CompletedAt: next.ServerNow,
				TotalPicks:  params.TotalPicks(),
			},
		})
	case models.DraftPhaseDrafting:
		EmitPickStarted(ctx, sink, params, next)
	}
}

// EmitPickStarted announces the pick now on the clock.
func EmitPickStarted(ctx context.Context, sink events.Sink, params state.Params, s *models.DraftState) {
	sink.Emit(ctx, events.Event{
		DraftID: s.DraftID,
		Type:    events.PickStarted,
		Payload: events.PickStartedPayload{
			DraftID:         s.DraftID.String(),
			ParticipantID:   s.OnClockParticipantID,
			Round:           s.Round,
			Overall:         s.PickIndex,
			Version:         s.Version,
			StartedAt:       s.ServerNow,
			DeadlineAt:      s.DeadlineAt,
			PickTimeSeconds: int(params.PickTime.Seconds()),
		},
	})
}
