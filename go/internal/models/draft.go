package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPhase defines where a draft is in its lifecycle.
type DraftPhase string

const (
	DraftPhaseScheduled DraftPhase = "scheduled"
	DraftPhaseDrafting  DraftPhase = "drafting"
	DraftPhasePaused    DraftPhase = "paused"
	DraftPhaseComplete  DraftPhase = "complete"
	DraftPhaseCanceled  DraftPhase = "canceled"
	DraftPhaseFailed    DraftPhase = "failed"
)

// Terminal reports whether no further transitions are accepted from this phase.
func (p DraftPhase) Terminal() bool {
	switch p {
	case DraftPhaseComplete, DraftPhaseCanceled, DraftPhaseFailed:
		return true
	}
	return false
}

// DraftSettings holds JSONB configuration for drafts.
type DraftSettings struct {
	Rounds          int  `json:"rounds"`
	PickTimeSeconds int  `json:"pick_time_seconds"`
	Snake           bool `json:"snake"`
	// Instant drafts have no pick clock: every pick may be autopicked as
	// soon as it starts.
	Instant bool `json:"instant,omitempty"`
}

// PickTime returns the per-pick clock as a duration.
func (s DraftSettings) PickTime() time.Duration {
	if s.Instant {
		return 0
	}
	return time.Duration(s.PickTimeSeconds) * time.Second
}

// Draft represents a draft instance. Order is empty until the draft is started.
type Draft struct {
	ID        uuid.UUID     `json:"id"`
	LeagueID  uuid.UUID     `json:"league_id"`
	Order     []string      `json:"order,omitempty"`
	Settings  DraftSettings `json:"settings"`
	StartAt   *time.Time    `json:"start_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TotalPicks is rounds × participants once the order is fixed.
func (d *Draft) TotalPicks() int {
	return d.Settings.Rounds * len(d.Order)
}

// DraftState is the versioned snapshot of a live draft. Exactly one exists per
// started draft and every write is conditioned on Version.
type DraftState struct {
	DraftID                    uuid.UUID  `json:"draft_id"`
	Version                    int64      `json:"version"`
	Phase                      DraftPhase `json:"phase"`
	OnClockParticipantID       string     `json:"on_clock_participant_id,omitempty"`
	Round                      int        `json:"round"`
	PickIndex                  int        `json:"pick_index"`
	PicksPerRound              int        `json:"picks_per_round"`
	DeadlineAt                 time.Time  `json:"deadline_at"`
	LastAcceptedIdempotencyKey string     `json:"last_accepted_idempotency_key,omitempty"`
	ServerNow                  time.Time  `json:"server_now"`
}

// Expired reports whether the current pick may be autopicked at now.
func (s *DraftState) Expired(now time.Time) bool {
	return !now.Before(s.DeadlineAt)
}
