package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/sqlutil"
)

// ErrEventNotFound is returned when an outbox row is missing or already sent.
var ErrEventNotFound = errors.New("outbox event not found or already sent")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) InsertOutboxEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO draft_outbox (id, draft_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`, id, draftID, eventType, payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return id, nil
}

func (r *Repository) FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, draft_id, event_type, payload, created_at, sent_at, attempts
		FROM draft_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *Repository) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, draft_id, event_type, payload, created_at, sent_at, attempts
		FROM draft_outbox
		WHERE id = $1 AND sent_at IS NULL`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	return e, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE draft_outbox SET sent_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, id uuid.UUID, cause error) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE draft_outbox SET attempts = attempts + 1, last_error = $2
		WHERE id = $1`, id, cause.Error())
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", err)
	}
	return nil
}

func (r *Repository) CountUnsentOutbox(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM draft_outbox WHERE sent_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unsent outbox events: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*OutboxEvent, error) {
	var e OutboxEvent
	var payload []byte
	var sentAt sql.NullTime
	if err := row.Scan(&e.ID, &e.DraftID, &e.EventType, &payload, &e.CreatedAt, &sentAt, &e.Attempts); err != nil {
		return nil, err
	}
	e.Payload = payload
	e.SentAt = sqlutil.FromSqlTime(sentAt)
	return &e, nil
}
