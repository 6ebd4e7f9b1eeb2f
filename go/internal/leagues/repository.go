package leagues

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
	"github.com/mcdev12/livedraft/go/internal/sqlutil"
)

// Repository implements league data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new leagues repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// GetLeague retrieves a league by ID
func (r *Repository) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, id)
	league, err := scanLeague(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("league %s: %w", id, drafterr.ErrLeagueNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return league, nil
}

// ListMembers returns members in join order
func (r *Repository) ListMembers(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT league_id, user_id, joined_at FROM league_members
		WHERE league_id = $1
		ORDER BY joined_at ASC, user_id ASC`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list league members: %w", err)
	}
	defer rows.Close()

	var members []models.LeagueMember
	for rows.Next() {
		var m models.LeagueMember
		if err := rows.Scan(&m.LeagueID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan league member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListFantasyTeams returns every team in a league
func (r *Repository) ListFantasyTeams(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, league_id, owner_id, name, created_at FROM fantasy_teams
		WHERE league_id = $1
		ORDER BY created_at ASC`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fantasy teams: %w", err)
	}
	defer rows.Close()

	var teams []models.FantasyTeam
	for rows.Next() {
		var t models.FantasyTeam
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.OwnerID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fantasy team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// UpdateLeaguePhase sets the denormalized phase marker
func (r *Repository) UpdateLeaguePhase(ctx context.Context, id uuid.UUID, phase models.LeaguePhase) error {
	res, err := r.db.ExecContext(ctx, `UPDATE leagues SET phase = $2, updated_at = NOW() WHERE id = $1`, id, string(phase))
	if err != nil {
		return fmt.Errorf("failed to update league phase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("league %s: %w", id, drafterr.ErrLeagueNotFound)
	}
	return nil
}

// UpdateDraftOrderOverride replaces the commissioner override. nil clears it.
func (r *Repository) UpdateDraftOrderOverride(ctx context.Context, id uuid.UUID, override []string) error {
	raw, err := toNullJSON(override)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE leagues SET draft_order_override = $2, updated_at = NOW() WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("failed to update draft order override: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("league %s: %w", id, drafterr.ErrLeagueNotFound)
	}
	return nil
}

const leagueColumns = `id, name, commissioner_id, phase, max_teams, draft_rounds, pick_time_seconds,
	draft_start_at, draft_order_override, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeague(row rowScanner) (*models.League, error) {
	var l models.League
	var phase string
	var startAt sql.NullTime
	var override pqtype.NullRawMessage
	if err := row.Scan(&l.ID, &l.Name, &l.CommissionerID, &phase, &l.MaxTeams, &l.DraftRounds,
		&l.PickTimeSeconds, &startAt, &override, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Phase = models.LeaguePhase(phase)
	l.DraftStartAt = sqlutil.FromSqlTime(startAt)
	if override.Valid && len(override.RawMessage) > 0 {
		if err := json.Unmarshal(override.RawMessage, &l.DraftOrderOverride); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft order override: %w", err)
		}
	}
	return &l, nil
}

func toNullJSON(entries []string) (pqtype.NullRawMessage, error) {
	if len(entries) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("failed to marshal draft order override: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}
