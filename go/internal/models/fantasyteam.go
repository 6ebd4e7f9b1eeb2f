package models

import (
	"time"

	"github.com/google/uuid"
)

// FantasyTeam is a drafting participant. OwnerID is the user that owns it.
type FantasyTeam struct {
	ID        uuid.UUID `json:"id"`
	LeagueID  uuid.UUID `json:"league_id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
