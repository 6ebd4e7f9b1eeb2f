package leagues

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// LeaguesRepository defines what the app layer needs from the repository
type LeaguesRepository interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	ListMembers(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error)
	ListFantasyTeams(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error)
	UpdateLeaguePhase(ctx context.Context, id uuid.UUID, phase models.LeaguePhase) error
	UpdateDraftOrderOverride(ctx context.Context, id uuid.UUID, override []string) error
}

// App handles league reads for drafting
type App struct {
	repo LeaguesRepository
}

// NewApp creates a new league App
func NewApp(repo LeaguesRepository) *App {
	return &App{
		repo: repo,
	}
}

// GetLeagueConfig loads the league with its members (join order) and teams.
func (a *App) GetLeagueConfig(ctx context.Context, leagueID uuid.UUID) (*models.LeagueConfig, error) {
	league, err := a.repo.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	members, err := a.repo.ListMembers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	teams, err := a.repo.ListFantasyTeams(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return &models.LeagueConfig{League: *league, Members: members, Teams: teams}, nil
}

// MarkLeaguePhase mirrors the draft phase onto the league record.
func (a *App) MarkLeaguePhase(ctx context.Context, leagueID uuid.UUID, phase models.LeaguePhase) error {
	if err := a.repo.UpdateLeaguePhase(ctx, leagueID, phase); err != nil {
		return fmt.Errorf("failed to mark league %s: %w", phase, err)
	}
	log.Info().Str("league_id", leagueID.String()).Str("phase", string(phase)).Msg("league phase updated")
	return nil
}

// SetDraftOrder stores a commissioner override of the draft order.
func (a *App) SetDraftOrder(ctx context.Context, req SetDraftOrderRequest) error {
	league, err := a.repo.GetLeague(ctx, req.LeagueID)
	if err != nil {
		return err
	}
	if league.CommissionerID != req.ActorID {
		return fmt.Errorf("only the commissioner can set the draft order: %w", drafterr.ErrPermissionDenied)
	}
	if league.Phase != "" && league.Phase != models.LeaguePhaseScheduled {
		return fmt.Errorf("league is %s: %w", league.Phase, drafterr.ErrInvalidTransition)
	}
	if err := a.repo.UpdateDraftOrderOverride(ctx, req.LeagueID, req.Order); err != nil {
		return err
	}
	return nil
}
