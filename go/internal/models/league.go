package models

import (
	"time"

	"github.com/google/uuid"
)

// LeaguePhase is the denormalized phase marker kept on the league record.
type LeaguePhase string

const (
	LeaguePhaseScheduled LeaguePhase = "scheduled"
	LeaguePhaseDrafting  LeaguePhase = "drafting"
	LeaguePhaseComplete  LeaguePhase = "complete"
)

// League represents a fantasy league as far as drafting is concerned
type League struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	CommissionerID     string      `json:"commissioner_id"`
	Phase              LeaguePhase `json:"phase"`
	MaxTeams           int         `json:"max_teams"`
	DraftRounds        int         `json:"draft_rounds"`
	PickTimeSeconds    int         `json:"pick_time_seconds"`
	DraftStartAt       *time.Time  `json:"draft_start_at,omitempty"`
	DraftOrderOverride []string    `json:"draft_order_override,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// LeagueMember is a user's membership in a league.
type LeagueMember struct {
	LeagueID uuid.UUID `json:"league_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// LeagueConfig is everything the engine reads about a league to start a draft.
// Members are in join order.
type LeagueConfig struct {
	League  League         `json:"league"`
	Members []LeagueMember `json:"members"`
	Teams   []FantasyTeam  `json:"teams"`
}
