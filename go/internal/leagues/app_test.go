package leagues

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
)

type fakeRepo struct {
	leagues map[uuid.UUID]*models.League
	members map[uuid.UUID][]models.LeagueMember
	teams   map[uuid.UUID][]models.FantasyTeam
}

func (r *fakeRepo) GetLeague(_ context.Context, id uuid.UUID) (*models.League, error) {
	l, ok := r.leagues[id]
	if !ok {
		return nil, fmt.Errorf("league %s: %w", id, drafterr.ErrLeagueNotFound)
	}
	cp := *l
	return &cp, nil
}

func (r *fakeRepo) ListMembers(_ context.Context, id uuid.UUID) ([]models.LeagueMember, error) {
	return r.members[id], nil
}

func (r *fakeRepo) ListFantasyTeams(_ context.Context, id uuid.UUID) ([]models.FantasyTeam, error) {
	return r.teams[id], nil
}

func (r *fakeRepo) UpdateLeaguePhase(_ context.Context, id uuid.UUID, phase models.LeaguePhase) error {
	l, ok := r.leagues[id]
	if !ok {
		return drafterr.ErrLeagueNotFound
	}
	l.Phase = phase
	return nil
}

func (r *fakeRepo) UpdateDraftOrderOverride(_ context.Context, id uuid.UUID, override []string) error {
	r.leagues[id].DraftOrderOverride = override
	return nil
}

func newFakeRepo() (*fakeRepo, uuid.UUID) {
	id := uuid.New()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	return &fakeRepo{
		leagues: map[uuid.UUID]*models.League{
			id: {ID: id, Name: "Test League", CommissionerID: "owner-1", Phase: models.LeaguePhaseScheduled, MaxTeams: 2},
		},
		members: map[uuid.UUID][]models.LeagueMember{
			id: {
				{LeagueID: id, UserID: "owner-1", JoinedAt: now},
				{LeagueID: id, UserID: "owner-2", JoinedAt: now.Add(time.Minute)},
			},
		},
		teams: map[uuid.UUID][]models.FantasyTeam{
			id: {{ID: uuid.New(), LeagueID: id, OwnerID: "owner-1", Name: "Team One"}},
		},
	}, id
}

func TestApp_GetLeagueConfig(t *testing.T) {
	repo, id := newFakeRepo()
	app := NewApp(repo)

	cfg, err := app.GetLeagueConfig(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Test League", cfg.League.Name)
	assert.Len(t, cfg.Members, 2)
	assert.Len(t, cfg.Teams, 1)

	_, err = app.GetLeagueConfig(context.Background(), uuid.New())
	assert.ErrorIs(t, err, drafterr.ErrLeagueNotFound)
}

func TestApp_SetDraftOrder(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		phase   models.LeaguePhase
		wantErr error
	}{
		{name: "commissioner", actor: "owner-1", phase: models.LeaguePhaseScheduled},
		{name: "other member", actor: "owner-2", phase: models.LeaguePhaseScheduled, wantErr: drafterr.ErrPermissionDenied},
		{name: "draft underway", actor: "owner-1", phase: models.LeaguePhaseDrafting, wantErr: drafterr.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, id := newFakeRepo()
			repo.leagues[id].Phase = tt.phase
			app := NewApp(repo)

			err := app.SetDraftOrder(context.Background(), SetDraftOrderRequest{
				LeagueID: id,
				ActorID:  tt.actor,
				Order:    []string{"owner-2", "owner-1"},
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.leagues[id].DraftOrderOverride)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"owner-2", "owner-1"}, repo.leagues[id].DraftOrderOverride)
		})
	}
}

func TestApp_MarkLeaguePhase(t *testing.T) {
	repo, id := newFakeRepo()
	app := NewApp(repo)

	require.NoError(t, app.MarkLeaguePhase(context.Background(), id, models.LeaguePhaseComplete))
	assert.Equal(t, models.LeaguePhaseComplete, repo.leagues[id].Phase)

	assert.ErrorIs(t, app.MarkLeaguePhase(context.Background(), uuid.New(), models.LeaguePhaseComplete), drafterr.ErrLeagueNotFound)
}
