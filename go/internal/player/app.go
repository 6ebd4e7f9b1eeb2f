package player

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/models"
)

// PlayerRepository defines what the app layer needs from the repository
type PlayerRepository interface {
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	GetPlayersByIDs(ctx context.Context, ids []string) ([]models.Player, error)
	QueryEligiblePlayers(ctx context.Context, excludeIDs []string, limit int) ([]models.Player, error)
}

// PickLister lists the picks already made in a draft.
type PickLister interface {
	ListPickRecords(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error)
}

const (
	defaultAvailableLimit = 50
	maxAvailableLimit     = 500
)

// App handles player pool reads
type App struct {
	repo  PlayerRepository
	picks PickLister
}

// NewApp creates a new player App
func NewApp(repo PlayerRepository, picks PickLister) *App {
	return &App{
		repo:  repo,
		picks: picks,
	}
}

// GetPlayer retrieves a player by ID
func (a *App) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	p, err := a.repo.GetPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// ListAvailablePlayers returns the best undrafted eligible players for a draft.
func (a *App) ListAvailablePlayers(ctx context.Context, draftID uuid.UUID, limit int) ([]models.Player, error) {
	switch {
	case limit <= 0:
		limit = defaultAvailableLimit
	case limit > maxAvailableLimit:
		limit = maxAvailableLimit
	}

	picks, err := a.picks.ListPickRecords(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	taken := make([]string, 0, len(picks))
	for _, p := range picks {
		taken = append(taken, p.PlayerID)
	}

	players, err := a.repo.QueryEligiblePlayers(ctx, taken, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query available players: %w", err)
	}
	return players, nil
}

// RosterEntry is a pick joined with its player.
type RosterEntry struct {
	Pick   models.PickRecord `json:"pick"`
	Player *models.Player    `json:"player,omitempty"`
}

// ListDraftedPlayers returns every pick of a draft with player details.
func (a *App) ListDraftedPlayers(ctx context.Context, draftID uuid.UUID) ([]RosterEntry, error) {
	picks, err := a.picks.ListPickRecords(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	ids := make([]string, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.PlayerID)
	}
	players, err := a.repo.GetPlayersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load drafted players: %w", err)
	}
	byID := make(map[string]*models.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	entries := make([]RosterEntry, 0, len(picks))
	for _, p := range picks {
		entries = append(entries, RosterEntry{Pick: p, Player: byID[p.PlayerID]})
	}
	return entries, nil
}
