package draft

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// LeaguePhaseMirror marks the owning league complete when a draft completes.
// It is an events.Sink so the pick path stays unaware of leagues.
type LeaguePhaseMirror struct {
	repo    DraftRepository
	leagues LeagueApp
}

func NewLeaguePhaseMirror(repo DraftRepository, leagues LeagueApp) *LeaguePhaseMirror {
	return &LeaguePhaseMirror{repo: repo, leagues: leagues}
}

func (m *LeaguePhaseMirror) Emit(ctx context.Context, e events.Event) {
	if e.Type != events.DraftCompleted {
		return
	}
	d, err := m.repo.GetDraft(ctx, e.DraftID)
	if err != nil {
		log.Warn().Err(err).Str("draft_id", e.DraftID.String()).Msg("league phase mirror: draft lookup failed")
		return
	}
	if err := m.leagues.MarkLeaguePhase(ctx, d.LeagueID, models.LeaguePhaseComplete); err != nil {
		log.Warn().Err(err).Str("league_id", d.LeagueID.String()).Msg("failed to mark league complete")
	}
}
