package leagues

import (
	"github.com/google/uuid"
)

// SetDraftOrderRequest is a commissioner override of the draft order
type SetDraftOrderRequest struct {
	LeagueID uuid.UUID `json:"league_id"`
	ActorID  string    `json:"actor_id"`
	Order    []string  `json:"order"`
}
