package draft

import (
	"time"

	"github.com/google/uuid"
)

// OperatorActor is the actor id used by trusted automation (cron, the mock
// harness). It passes every commissioner check.
const OperatorActor = "system:operator"

// CreateDraftRequest represents a request to create a new draft for a league.
// Zero values fall back to the league's settings at start.
type CreateDraftRequest struct {
	// ID is generated when zero.
	ID              uuid.UUID  `json:"id,omitempty"`
	LeagueID        uuid.UUID  `json:"league_id"`
	Rounds          int        `json:"rounds"`
	PickTimeSeconds int        `json:"pick_time_seconds"`
	Snake           *bool      `json:"snake,omitempty"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	Instant         bool       `json:"instant,omitempty"`
}

// StartDraftRequest starts a draft. Force skips the start-time gate and is
// only honored for the league commissioner or the operator.
type StartDraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	ActorID string    `json:"actor_id"`
	Force   bool      `json:"force"`
}

// LifecycleRequest is shared by pause, resume and cancel.
type LifecycleRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	ActorID string    `json:"actor_id"`
}

// ForceReseedRequest restarts the clock of a draft that has no picks yet.
type ForceReseedRequest struct {
	DraftID      uuid.UUID `json:"draft_id"`
	ActorID      string    `json:"actor_id"`
	ResetOnClock bool      `json:"reset_on_clock"`
}

// Defaults are the engine-wide fallbacks for draft settings.
type Defaults struct {
	Rounds          int
	PickTimeSeconds int
	Snake           bool
	MaxAttempts     int
}
