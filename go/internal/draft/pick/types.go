package pick

import (
	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/models"
)

// MakePickRequest is a participant's pick submission. IdempotencyKey is opaque
// and compared by exact equality.
type MakePickRequest struct {
	DraftID        uuid.UUID `json:"draft_id"`
	ParticipantID  string    `json:"participant_id"`
	PlayerID       string    `json:"player_id"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// Result is the outcome of an accepted (or replayed) pick.
type Result struct {
	State *models.DraftState `json:"state"`
	// Pick is nil when the submission was a replay of an already applied pick.
	Pick     *models.PickRecord `json:"pick,omitempty"`
	Replayed bool               `json:"replayed"`
}

type mode int

const (
	modeManual mode = iota
	modeAutopick
)
