package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
	"github.com/mcdev12/livedraft/go/internal/sqlutil"
)

// Repository is the Postgres store for drafts, snapshots and pick records.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

type CreateDraftRequest struct {
	ID       uuid.UUID            `json:"id"`
	LeagueID uuid.UUID            `json:"league_id"`
	Settings models.DraftSettings `json:"settings"`
	StartAt  *time.Time           `json:"start_at"`
}

// NextDeadline is the earliest pending pick deadline across drafting drafts.
type NextDeadline struct {
	DraftID  uuid.UUID  `json:"draft_id"`
	Deadline *time.Time `json:"deadline"`
}

func (r *Repository) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	settingsBytes, err := json.Marshal(req.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft settings: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO drafts (id, league_id, settings, start_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, league_id, draft_order, settings, start_at, created_at, updated_at`,
		req.ID, req.LeagueID, settingsBytes, sqlutil.ToSqlTime(req.StartAt))

	draft, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

func (r *Repository) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, league_id, draft_order, settings, start_at, created_at, updated_at
		FROM drafts WHERE id = $1`, id)

	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, drafterr.ErrDraftNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

// SaveDraftOrder fixes the resolved order and effective settings on the draft.
func (r *Repository) SaveDraftOrder(ctx context.Context, id uuid.UUID, draftOrder []string, settings models.DraftSettings) error {
	orderBytes, err := json.Marshal(draftOrder)
	if err != nil {
		return fmt.Errorf("failed to marshal draft order: %w", err)
	}
	settingsBytes, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal draft settings: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE drafts SET draft_order = $2, settings = $3, updated_at = NOW()
		WHERE id = $1`, id, orderBytes, settingsBytes)
	if err != nil {
		return fmt.Errorf("failed to save draft order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("draft %s: %w", id, drafterr.ErrDraftNotFound)
	}
	return nil
}

const snapshotColumns = `draft_id, version, phase, on_clock_participant_id, round, pick_index,
	picks_per_round, deadline_at, last_accepted_idempotency_key, server_now`

func (r *Repository) GetSnapshot(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM draft_states WHERE draft_id = $1`, draftID)

	var s models.DraftState
	var phase string
	err := row.Scan(&s.DraftID, &s.Version, &phase, &s.OnClockParticipantID, &s.Round, &s.PickIndex,
		&s.PicksPerRound, &s.DeadlineAt, &s.LastAcceptedIdempotencyKey, &s.ServerNow)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", draftID, drafterr.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	s.Phase = models.DraftPhase(phase)
	return &s, nil
}

// CreateSnapshot inserts the first snapshot of a draft.
func (r *Repository) CreateSnapshot(ctx context.Context, s *models.DraftState) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO draft_states (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (draft_id) DO NOTHING`,
		s.DraftID, s.Version, string(s.Phase), s.OnClockParticipantID, s.Round, s.PickIndex,
		s.PicksPerRound, s.DeadlineAt, s.LastAcceptedIdempotencyKey, s.ServerNow)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("draft %s: %w", s.DraftID, drafterr.ErrSnapshotExists)
	}
	return nil
}

// WriteSnapshot replaces the snapshot only if the stored version is still
// expectedVersion.
func (r *Repository) WriteSnapshot(ctx context.Context, s *models.DraftState, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE draft_states SET
			version = $2, phase = $3, on_clock_participant_id = $4, round = $5, pick_index = $6,
			picks_per_round = $7, deadline_at = $8, last_accepted_idempotency_key = $9, server_now = $10
		WHERE draft_id = $1 AND version = $11`,
		s.DraftID, s.Version, string(s.Phase), s.OnClockParticipantID, s.Round, s.PickIndex,
		s.PicksPerRound, s.DeadlineAt, s.LastAcceptedIdempotencyKey, s.ServerNow, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("draft %s expected version %d: %w", s.DraftID, expectedVersion, drafterr.ErrVersionConflict)
	}
	return nil
}

func (r *Repository) FetchNextDeadline(ctx context.Context, exclude []uuid.UUID) (*NextDeadline, error) {
	ids := make([]string, len(exclude))
	for i, id := range exclude {
		ids[i] = id.String()
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT draft_id, deadline_at FROM draft_states
		WHERE phase = 'drafting' AND draft_id <> ALL($1::uuid[])
		ORDER BY deadline_at ASC
		LIMIT 1`, pq.Array(ids))

	var nd NextDeadline
	var deadline sql.NullTime
	err := row.Scan(&nd.DraftID, &deadline)
	if errors.Is(err, sql.ErrNoRows) {
		return &NextDeadline{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next deadline: %w", err)
	}
	nd.Deadline = sqlutil.FromSqlTime(deadline)
	return &nd, nil
}

func (r *Repository) FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT draft_id FROM draft_states
		WHERE phase = 'drafting' AND deadline_at <= $1
		ORDER BY deadline_at ASC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due deadlines: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan draft id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*models.Draft, error) {
	var d models.Draft
	var orderBytes, settingsBytes []byte
	var startAt sql.NullTime
	if err := row.Scan(&d.ID, &d.LeagueID, &orderBytes, &settingsBytes, &startAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if len(orderBytes) > 0 {
		if err := json.Unmarshal(orderBytes, &d.Order); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft order: %w", err)
		}
	}
	if len(settingsBytes) > 0 {
		if err := json.Unmarshal(settingsBytes, &d.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft settings: %w", err)
		}
	}
	d.StartAt = sqlutil.FromSqlTime(startAt)
	return &d, nil
}
