package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// MemoryStore is an in-process store with the same contract as the Postgres
// repository, plus league and player pool reads. Used by the mock harness and
// tests.
type MemoryStore struct {
	mu        sync.Mutex
	drafts    map[uuid.UUID]models.Draft
	snapshots map[uuid.UUID]models.DraftState
	picks     map[uuid.UUID][]models.PickRecord
	leagues   map[uuid.UUID]models.LeagueConfig
	players   []models.Player
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts:    make(map[uuid.UUID]models.Draft),
		snapshots: make(map[uuid.UUID]models.DraftState),
		picks:     make(map[uuid.UUID][]models.PickRecord),
		leagues:   make(map[uuid.UUID]models.LeagueConfig),
	}
}

func (m *MemoryStore) CreateDraft(_ context.Context, req CreateDraftRequest) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.drafts[req.ID]; ok {
		return nil, fmt.Errorf("draft %s already exists", req.ID)
	}
	now := time.Now().UTC()
	d := models.Draft{
		ID:        req.ID,
		LeagueID:  req.LeagueID,
		Settings:  req.Settings,
		StartAt:   req.StartAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.drafts[d.ID] = d
	return cloneDraft(d), nil
}

func (m *MemoryStore) GetDraft(_ context.Context, id uuid.UUID) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, drafterr.ErrDraftNotFound)
	}
	return cloneDraft(d), nil
}

func (m *MemoryStore) SaveDraftOrder(_ context.Context, id uuid.UUID, draftOrder []string, settings models.DraftSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return fmt.Errorf("draft %s: %w", id, drafterr.ErrDraftNotFound)
	}
	d.Order = slices.Clone(draftOrder)
	d.Settings = settings
	d.UpdatedAt = time.Now().UTC()
	m.drafts[id] = d
	return nil
}

func (m *MemoryStore) GetSnapshot(_ context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.snapshots[draftID]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", draftID, drafterr.ErrSnapshotNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) CreateSnapshot(_ context.Context, s *models.DraftState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[s.DraftID]; ok {
		return fmt.Errorf("draft %s: %w", s.DraftID, drafterr.ErrSnapshotExists)
	}
	m.snapshots[s.DraftID] = *s
	return nil
}

func (m *MemoryStore) WriteSnapshot(_ context.Context, s *models.DraftState, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.snapshots[s.DraftID]
	if !ok {
		return fmt.Errorf("draft %s: %w", s.DraftID, drafterr.ErrSnapshotNotFound)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("draft %s expected version %d, have %d: %w", s.DraftID, expectedVersion, cur.Version, drafterr.ErrVersionConflict)
	}
	m.snapshots[s.DraftID] = *s
	return nil
}

func (m *MemoryStore) AppendPickRecord(_ context.Context, rec models.PickRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.picks[rec.DraftID] {
		if p.Overall == rec.Overall {
			return fmt.Errorf("pick %d: %w", rec.Overall, drafterr.ErrDuplicatePickIndex)
		}
		if p.PlayerID == rec.PlayerID {
			return fmt.Errorf("player %s: %w", rec.PlayerID, drafterr.ErrPlayerAlreadyDrafted)
		}
	}
	m.picks[rec.DraftID] = append(m.picks[rec.DraftID], rec)
	return nil
}

func (m *MemoryStore) ListPickRecords(_ context.Context, draftID uuid.UUID) ([]models.PickRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	picks := slices.Clone(m.picks[draftID])
	sort.Slice(picks, func(i, j int) bool { return picks[i].Overall < picks[j].Overall })
	return picks, nil
}

func (m *MemoryStore) FetchNextDeadline(_ context.Context, exclude []uuid.UUID) (*NextDeadline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := &NextDeadline{}
	for id, s := range m.snapshots {
		if s.Phase != models.DraftPhaseDrafting || slices.Contains(exclude, id) {
			continue
		}
		if next.Deadline == nil || s.DeadlineAt.Before(*next.Deadline) {
			d := s.DeadlineAt
			next = &NextDeadline{DraftID: id, Deadline: &d}
		}
	}
	return next, nil
}

func (m *MemoryStore) FetchDraftsDueForPick(_ context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []models.DraftState
	for _, s := range m.snapshots {
		if s.Phase == models.DraftPhaseDrafting && !s.DeadlineAt.After(now) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DeadlineAt.Before(due[j].DeadlineAt) })

	ids := make([]uuid.UUID, 0, len(due))
	for i, s := range due {
		if limit > 0 && int32(i) >= limit {
			break
		}
		ids = append(ids, s.DraftID)
	}
	return ids, nil
}

// PutLeague stores a league configuration.
func (m *MemoryStore) PutLeague(cfg models.LeagueConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leagues[cfg.League.ID] = cfg
}

func (m *MemoryStore) GetLeagueConfig(_ context.Context, leagueID uuid.UUID) (*models.LeagueConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.leagues[leagueID]
	if !ok {
		return nil, fmt.Errorf("league %s: %w", leagueID, drafterr.ErrLeagueNotFound)
	}
	cfg.Members = slices.Clone(cfg.Members)
	cfg.Teams = slices.Clone(cfg.Teams)
	cfg.League.DraftOrderOverride = slices.Clone(cfg.League.DraftOrderOverride)
	return &cfg, nil
}

func (m *MemoryStore) MarkLeaguePhase(_ context.Context, leagueID uuid.UUID, phase models.LeaguePhase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.leagues[leagueID]
	if !ok {
		return fmt.Errorf("league %s: %w", leagueID, drafterr.ErrLeagueNotFound)
	}
	cfg.League.Phase = phase
	m.leagues[leagueID] = cfg
	return nil
}

// PutPlayers replaces the player pool.
func (m *MemoryStore) PutPlayers(players []models.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = slices.Clone(players)
}

func (m *MemoryStore) GetPlayersByIDs(_ context.Context, ids []string) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Player
	for _, p := range m.players {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) QueryEligiblePlayers(_ context.Context, excludeIDs []string, limit int) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []models.Player
	for _, p := range m.players {
		if p.Eligible && !excluded[p.ID] {
			out = append(out, p)
		}
	}
	SortByRank(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SortByRank orders players best first: rating desc, fantasy points desc, id asc.
func SortByRank(players []models.Player) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.FantasyPoints != b.FantasyPoints {
			return a.FantasyPoints > b.FantasyPoints
		}
		return a.ID < b.ID
	})
}

func cloneDraft(d models.Draft) *models.Draft {
	d.Order = slices.Clone(d.Order)
	return &d
}
