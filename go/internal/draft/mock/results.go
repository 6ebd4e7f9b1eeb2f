package mock

import (
	"time"
)

// Results is the full output of one bot draft. Field names follow the JSON
// artifact format consumers already parse.
type Results struct {
	Draft         DraftInfo     `json:"draft"`
	Participants  []Participant `json:"participants"`
	Picks         []PickEntry   `json:"picks"`
	SummaryByTeam []TeamSummary `json:"summaryByTeam"`
	Validation    Validation    `json:"validation"`
}

// Validation holds the end-of-draft checks every run must pass.
type Validation struct {
	NoDuplicatePlayers bool `json:"noDuplicatePlayers"`
	CorrectPickCount   bool `json:"correctPickCount"`
	DraftComplete      bool `json:"draftComplete"`
}

func (v Validation) Passed() bool {
	return v.NoDuplicatePlayers && v.CorrectPickCount && v.DraftComplete
}

type DraftInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Seed        string    `json:"seed"`
	NumTeams    int       `json:"numTeams"`
	Rounds      int       `json:"rounds"`
	Snake       bool      `json:"snake"`
	Mode        string    `json:"mode"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Metrics     Metrics   `json:"metrics"`
}

type Metrics struct {
	DurationSec    float64 `json:"durationSec"`
	TotalPicks     int     `json:"totalPicks"`
	AutopicksCount int     `json:"autopicksCount"`
	ManualPicks    int     `json:"manualPicks"`

	// human mode
	SkippedTurns         int `json:"skippedTurns,omitempty"`
	OutOfTurnAttempts    int `json:"outOfTurnAttempts,omitempty"`
	ConcurrencyRetries   int `json:"concurrencyRetries,omitempty"`
	DuplicateSubmissions int `json:"duplicateSubmissions,omitempty"`
	Replays              int `json:"replays,omitempty"`
}

type Participant struct {
	ID          string `json:"id"`
	Slot        int    `json:"slot"`
	DisplayName string `json:"displayName"`
}

type PickEntry struct {
	Round         int       `json:"round"`
	Overall       int       `json:"overall"`
	Slot          int       `json:"slot"`
	ParticipantID string    `json:"participantId"`
	PlayerID      string    `json:"playerId"`
	Autopick      bool      `json:"autopick"`
	PickedAt      time.Time `json:"pickedAt"`
}

type RosterPlayer struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Team     string `json:"team"`
	College  string `json:"college"`
	Overall  int    `json:"overall"`
	Round    int    `json:"round"`
}

type TeamSummary struct {
	Slot           int            `json:"slot"`
	DisplayName    string         `json:"displayName"`
	Players        []RosterPlayer `json:"players"`
	PositionCounts map[string]int `json:"positionCounts"`
	TotalPlayers   int            `json:"totalPlayers"`
}

// Team returns the summary for slot, or nil.
func (r *Results) Team(slot int) *TeamSummary {
	for i := range r.SummaryByTeam {
		if r.SummaryByTeam[i].Slot == slot {
			return &r.SummaryByTeam[i]
		}
	}
	return nil
}
