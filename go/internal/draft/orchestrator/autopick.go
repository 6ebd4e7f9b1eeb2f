package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// AutoPickStrategy chooses a player for the participant on the clock.
type AutoPickStrategy interface {
	SelectPlayer(ctx context.Context, draftID uuid.UUID, participantID string, drafted []string) (*models.Player, error)
}

// PlayerPool is the eligible player source used by BestAvailableStrategy.
type PlayerPool interface {
	// QueryEligiblePlayers returns eligible players not in excludeIDs, best first.
	QueryEligiblePlayers(ctx context.Context, excludeIDs []string, limit int) ([]models.Player, error)
}

// BestAvailableStrategy takes the highest ranked eligible player nobody has
// drafted yet.
type BestAvailableStrategy struct {
	pool PlayerPool
}

// NewBestAvailableStrategy constructs a BestAvailableStrategy.
func NewBestAvailableStrategy(pool PlayerPool) *BestAvailableStrategy {
	return &BestAvailableStrategy{pool: pool}
}

// SelectPlayer implements AutoPickStrategy.SelectPlayer
func (s *BestAvailableStrategy) SelectPlayer(ctx context.Context, draftID uuid.UUID, participantID string, drafted []string) (*models.Player, error) {
	players, err := s.pool.QueryEligiblePlayers(ctx, drafted, 1)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("draft %s: %w", draftID, drafterr.ErrNoPlayersAvailable)
	}
	return &players[0], nil
}
