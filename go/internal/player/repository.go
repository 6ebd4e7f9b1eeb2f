package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mcdev12/livedraft/go/internal/models"
)

// ErrPlayerNotFound is returned when a player id does not exist in the pool.
var ErrPlayerNotFound = errors.New("player not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

const playerColumns = `id, full_name, position, team, college, eligible, rating, fantasy_points`

func (r *Repository) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// GetPlayersByIDs returns the players found among ids, in no particular order.
func (r *Repository) GetPlayersByIDs(ctx context.Context, ids []string) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	return collectPlayers(rows)
}

// QueryEligiblePlayers returns eligible players not in excludeIDs, best first:
// rating desc, fantasy points desc, id asc.
func (r *Repository) QueryEligiblePlayers(ctx context.Context, excludeIDs []string, limit int) ([]models.Player, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE eligible AND NOT (id = ANY($1))
		ORDER BY rating DESC, fantasy_points DESC, id ASC
		LIMIT $2`, pq.Array(excludeIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible players: %w", err)
	}
	return collectPlayers(rows)
}

func collectPlayers(rows *sql.Rows) ([]models.Player, error) {
	defer rows.Close()
	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var p models.Player
	if err := row.Scan(&p.ID, &p.FullName, &p.Position, &p.Team, &p.College, &p.Eligible, &p.Rating, &p.FantasyPoints); err != nil {
		return nil, err
	}
	return &p, nil
}
