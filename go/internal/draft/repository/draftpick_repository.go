package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
	"github.com/mcdev12/livedraft/go/internal/sqlutil"
)

// AppendPickRecord inserts an immutable pick record. Unique violations are
// mapped to the matching typed outcome by constraint name.
func (r *Repository) AppendPickRecord(ctx context.Context, rec models.PickRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO draft_picks (id, draft_id, participant_id, player_id, round, overall, idempotency_key, autopick, picked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.DraftID, rec.ParticipantID, rec.PlayerID, rec.Round, rec.Overall,
		rec.IdempotencyKey, rec.Autopick, rec.PickedAt)
	if err == nil {
		return nil
	}

	if constraint, ok := sqlutil.UniqueViolation(err); ok {
		switch constraint {
		case "draft_picks_player_key":
			return fmt.Errorf("player %s: %w", rec.PlayerID, drafterr.ErrPlayerAlreadyDrafted)
		default:
			return fmt.Errorf("pick %d: %w", rec.Overall, drafterr.ErrDuplicatePickIndex)
		}
	}
	return fmt.Errorf("failed to append pick record: %w", err)
}

// ListPickRecords returns a draft's picks ordered by overall pick number.
func (r *Repository) ListPickRecords(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, draft_id, participant_id, player_id, round, overall, idempotency_key, autopick, picked_at
		FROM draft_picks WHERE draft_id = $1
		ORDER BY overall ASC`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pick records: %w", err)
	}
	defer rows.Close()

	var picks []models.PickRecord
	for rows.Next() {
		var p models.PickRecord
		if err := rows.Scan(&p.ID, &p.DraftID, &p.ParticipantID, &p.PlayerID, &p.Round, &p.Overall,
			&p.IdempotencyKey, &p.Autopick, &p.PickedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick record: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}
