package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PickRecord is the immutable record of one accepted pick.
type PickRecord struct {
	ID             string    `json:"id"`
	DraftID        uuid.UUID `json:"draft_id"`
	ParticipantID  string    `json:"participant_id"`
	PlayerID       string    `json:"player_id"`
	Round          int       `json:"round"`
	Overall        int       `json:"overall"`
	IdempotencyKey string    `json:"idempotency_key"`
	Autopick       bool      `json:"autopick"`
	PickedAt       time.Time `json:"picked_at"`
}

// PickRecordID is the deterministic record id for an overall pick number.
func PickRecordID(draftID uuid.UUID, overall int) string {
	return fmt.Sprintf("p_%s_%d", draftID, overall)
}
