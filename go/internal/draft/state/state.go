// Package state holds the pure transitions of a draft snapshot. Nothing here
// performs I/O; callers pass in now.
package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/draft/order"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// Params are the fixed inputs of every transition for one draft.
type Params struct {
	Order    []string
	Rounds   int
	PickTime time.Duration
	Snake    bool
}

// ParamsFor reads transition params off a started draft.
func ParamsFor(d *models.Draft) Params {
	return Params{
		Order:    d.Order,
		Rounds:   d.Settings.Rounds,
		PickTime: d.Settings.PickTime(),
		Snake:    d.Settings.Snake,
	}
}

// TotalPicks is rounds × participants.
func (p Params) TotalPicks() int {
	return p.Rounds * len(p.Order)
}

// OnClock returns the participant for pickIndex, or "" past the last pick.
func (p Params) OnClock(pickIndex int) string {
	if pickIndex > p.TotalPicks() {
		return ""
	}
	return order.ParticipantAt(pickIndex, len(p.Order), p.Order, p.Snake)
}

// Seed builds the first snapshot of a draft.
func Seed(draftID uuid.UUID, p Params, now time.Time) (*models.DraftState, error) {
	if len(p.Order) == 0 {
		return nil, fmt.Errorf("cannot seed draft %s with empty order: %w", draftID, drafterr.ErrConfiguration)
	}
	if p.Rounds <= 0 {
		return nil, fmt.Errorf("cannot seed draft %s with %d rounds: %w", draftID, p.Rounds, drafterr.ErrConfiguration)
	}
	return &models.DraftState{
		DraftID:              draftID,
		Version:              1,
		Phase:                models.DraftPhaseDrafting,
		OnClockParticipantID: p.OnClock(1),
		Round:                1,
		PickIndex:            1,
		PicksPerRound:        len(p.Order),
		DeadlineAt:           now.Add(p.PickTime),
		ServerNow:            now,
	}, nil
}

// Next returns the snapshot after the pick at cur.PickIndex is recorded.
// The accepted idempotency key is left to the caller.
func Next(cur models.DraftState, p Params, now time.Time) models.DraftState {
	next := cur
	next.PickIndex = cur.PickIndex + 1
	next.PicksPerRound = len(p.Order)
	next.Round = order.RoundFor(next.PickIndex, next.PicksPerRound)
	next.OnClockParticipantID = p.OnClock(next.PickIndex)
	next.DeadlineAt = now.Add(p.PickTime)
	next.ServerNow = now
	next.Version = cur.Version + 1
	if next.OnClockParticipantID == "" {
		next.Phase = models.DraftPhaseComplete
	} else {
		next.Phase = models.DraftPhaseDrafting
	}
	return next
}

// Pause moves a drafting snapshot to paused.
func Pause(cur models.DraftState, now time.Time) (models.DraftState, error) {
	if cur.Phase != models.DraftPhaseDrafting {
		return cur, fmt.Errorf("cannot pause from %s: %w", cur.Phase, drafterr.ErrInvalidTransition)
	}
	next := cur
	next.Phase = models.DraftPhasePaused
	next.Version++
	next.ServerNow = now
	return next, nil
}

// Resume moves a paused snapshot back to drafting with a fresh clock.
func Resume(cur models.DraftState, p Params, now time.Time) (models.DraftState, error) {
	if cur.Phase != models.DraftPhasePaused {
		return cur, fmt.Errorf("cannot resume from %s: %w", cur.Phase, drafterr.ErrInvalidTransition)
	}
	next := cur
	next.Phase = models.DraftPhaseDrafting
	next.DeadlineAt = now.Add(p.PickTime)
	next.Version++
	next.ServerNow = now
	return next, nil
}

// Cancel ends a draft that has not finished.
func Cancel(cur models.DraftState, now time.Time) (models.DraftState, error) {
	if cur.Phase.Terminal() {
		return cur, fmt.Errorf("cannot cancel from %s: %w", cur.Phase, drafterr.ErrInvalidTransition)
	}
	next := cur
	next.Phase = models.DraftPhaseCanceled
	next.Version++
	next.ServerNow = now
	return next, nil
}

// Reseed restarts the clock on the current pick. With resetOnClock the on-clock
// participant is recomputed from the order.
func Reseed(cur models.DraftState, p Params, now time.Time, resetOnClock bool) (models.DraftState, error) {
	if cur.Phase.Terminal() {
		return cur, fmt.Errorf("cannot reseed from %s: %w", cur.Phase, drafterr.ErrInvalidTransition)
	}
	next := cur
	next.DeadlineAt = now.Add(p.PickTime)
	if resetOnClock {
		next.PickIndex = 1
		next.Round = 1
		next.PicksPerRound = len(p.Order)
		next.OnClockParticipantID = p.OnClock(1)
	}
	next.Version++
	next.ServerNow = now
	return next, nil
}
