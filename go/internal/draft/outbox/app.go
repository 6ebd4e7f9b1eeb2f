package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/events"
)

// OutboxRepository defines what the app layer needs from the repository
type OutboxRepository interface {
	InsertOutboxEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) (uuid.UUID, error)
	FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error)
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID) error
	MarkOutboxFailed(ctx context.Context, id uuid.UUID, cause error) error
	CountUnsentOutbox(ctx context.Context) (int, error)
}

// App handles outbox business logic
type App struct {
	repo OutboxRepository
}

// NewApp creates a new outbox App
func NewApp(repo OutboxRepository) *App {
	return &App{
		repo: repo,
	}
}

var _ events.Sink = (*App)(nil)

// Emit writes a domain event to the outbox. Failures are logged, never
// returned: the draft write this event describes has already committed.
func (a *App) Emit(ctx context.Context, e events.Event) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		log.Error().Err(err).Str("draft_id", e.DraftID.String()).Str("event_type", string(e.Type)).Msg("failed to marshal outbox payload")
		return
	}
	if _, err := a.InsertEvent(ctx, e.DraftID, string(e.Type), payload); err != nil {
		log.Error().Err(err).Str("draft_id", e.DraftID.String()).Str("event_type", string(e.Type)).Msg("failed to write outbox event")
	}
}

// InsertEvent inserts an event of any type into the outbox
func (a *App) InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) (uuid.UUID, error) {
	if err := a.validateEventPayload(payload); err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s payload: %w", eventType, err)
	}

	id, err := a.repo.InsertOutboxEvent(ctx, draftID, eventType, payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert %s event: %w", eventType, err)
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Str("event_type", eventType).
		Str("event_id", id.String()).
		Msg("outbox event inserted")

	return id, nil
}

// FetchUnsentEvents fetches unsent outbox events
func (a *App) FetchUnsentEvents(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	events, err := a.repo.FetchUnsentOutbox(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent events: %w", err)
	}

	if len(events) > 0 {
		log.Debug().
			Int("count", len(events)).
			Msg("fetched unsent outbox events")
	}

	return events, nil
}

// GetEventByID fetches a specific unsent outbox event by ID
func (a *App) GetEventByID(ctx context.Context, eventID uuid.UUID) (*OutboxEvent, error) {
	event, err := a.repo.FetchOutboxByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	return event, nil
}

// MarkEventSent marks an outbox event as sent
func (a *App) MarkEventSent(ctx context.Context, eventID uuid.UUID) error {
	if err := a.repo.MarkOutboxSent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}

	log.Debug().
		Str("event_id", eventID.String()).
		Msg("marked outbox event as sent")

	return nil
}

// MarkEventFailed records a failed delivery attempt
func (a *App) MarkEventFailed(ctx context.Context, eventID uuid.UUID, cause error) error {
	return a.repo.MarkOutboxFailed(ctx, eventID, cause)
}

// PendingCount returns how many events still wait for delivery
func (a *App) PendingCount(ctx context.Context) (int, error) {
	return a.repo.CountUnsentOutbox(ctx)
}

func (a *App) validateEventPayload(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload cannot be empty")
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload must be valid JSON")
	}
	return nil
}
