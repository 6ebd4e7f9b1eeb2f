package events

import (
	"time"
)

// Event types written to the outbox and published as draft.events.<Type>.
type EventType string

const (
	DraftStarted   EventType = "DraftStarted"
	PickStarted    EventType = "PickStarted"
	PickMade       EventType = "PickMade"
	DraftPaused    EventType = "DraftPaused"
	DraftResumed   EventType = "DraftResumed"
	DraftReseeded  EventType = "DraftReseeded"
	DraftCanceled  EventType = "DraftCanceled"
	DraftCompleted EventType = "DraftCompleted"
	AutopickFailed EventType = "AutopickFailed"
)

// Event payload types that are shared between draft and gateway packages

// PickStartedPayload is the payload for a PickStarted event
type PickStartedPayload struct {
	DraftID         string    `json:"draft_id"`
	ParticipantID   string    `json:"participant_id"`
	Round           int       `json:"round"`
	Overall         int       `json:"overall"`
	Version         int64     `json:"version"`
	StartedAt       time.Time `json:"started_at"`
	DeadlineAt      time.Time `json:"deadline_at"`
	PickTimeSeconds int       `json:"pick_time_seconds"`
}

// PickMadePayload is the payload for a PickMade event
type PickMadePayload struct {
	DraftID       string    `json:"draft_id"`
	PickID        string    `json:"pick_id"`
	ParticipantID string    `json:"participant_id"`
	PlayerID      string    `json:"player_id"`
	Round         int       `json:"round"`
	Overall       int       `json:"overall"`
	Autopick      bool      `json:"autopick"`
	Version       int64     `json:"version"`
	MadeAt        time.Time `json:"made_at"`
}

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftID     string    `json:"draft_id"`
	LeagueID    string    `json:"league_id"`
	Order       []string  `json:"order"`
	Snake       bool      `json:"snake"`
	StartedAt   time.Time `json:"started_at"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	DraftID     string    `json:"draft_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftPausedPayload is the payload for a DraftPaused event
type DraftPausedPayload struct {
	DraftID  string    `json:"draft_id"`
	PausedAt time.Time `json:"paused_at"`
	Version  int64     `json:"version"`
}

// DraftResumedPayload is the payload for a DraftResumed event
type DraftResumedPayload struct {
	DraftID    string    `json:"draft_id"`
	ResumedAt  time.Time `json:"resumed_at"`
	DeadlineAt time.Time `json:"deadline_at"`
	Version    int64     `json:"version"`
}

// DraftReseededPayload is the payload for a DraftReseeded event
type DraftReseededPayload struct {
	DraftID       string    `json:"draft_id"`
	ActorID       string    `json:"actor_id"`
	ParticipantID string    `json:"participant_id"`
	DeadlineAt    time.Time `json:"deadline_at"`
	Version       int64     `json:"version"`
}

// DraftCanceledPayload is the payload for a DraftCanceled event
type DraftCanceledPayload struct {
	DraftID    string    `json:"draft_id"`
	ActorID    string    `json:"actor_id"`
	CanceledAt time.Time `json:"canceled_at"`
	Version    int64     `json:"version"`
}

// AutopickFailedPayload is the payload for an AutopickFailed event
type AutopickFailedPayload struct {
	DraftID       string    `json:"draft_id"`
	ParticipantID string    `json:"participant_id"`
	Overall       int       `json:"overall"`
	Reason        string    `json:"reason"`
	FailedAt      time.Time `json:"failed_at"`
}
