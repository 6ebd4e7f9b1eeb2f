// Package mock runs drafts end to end through the live pick path. In bot mode
// every pick is an autopick made by the timeout monitor. In human mode each
// seat submits its own picks while the others race it with out-of-turn
// submissions, and skipped turns fall through to autopick at the deadline.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/draft"
	"github.com/mcdev12/livedraft/go/internal/draft/events"
	"github.com/mcdev12/livedraft/go/internal/draft/orchestrator"
	"github.com/mcdev12/livedraft/go/internal/draft/pick"
	"github.com/mcdev12/livedraft/go/internal/draft/repository"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// namespace scopes the deterministic ids derived from a seed.
var namespace = uuid.MustParse("6f1c8c3e-2b7a-5d4e-9a61-0c3f7e2d9b18")

type Mode string

const (
	ModeBot   Mode = "bot"
	ModeHuman Mode = "human"
)

const DefaultHumanPickTimeSeconds = 3

type Config struct {
	Name   string
	Teams  int
	Rounds int
	Seed   string
	Snake  bool
	// PoolSize defaults to a quarter more players than picks.
	PoolSize int
	Mode     Mode

	// Human mode only.
	PickTimeSeconds  int
	SkipRate         float64 // share of turns a seat lets run out
	OutOfTurnRate    float64 // chance an off-clock seat submits anyway
	DoubleSubmitRate float64 // chance the on-clock seat sends its pick twice at once
}

func DefaultConfig() Config {
	return Config{
		Name:             "E2E Bot Draft",
		Teams:            12,
		Rounds:           15,
		Seed:             "BOT-SEED-001",
		Snake:            true,
		Mode:             ModeBot,
		PickTimeSeconds:  DefaultHumanPickTimeSeconds,
		SkipRate:         0.2,
		OutOfTurnRate:    0.1,
		DoubleSubmitRate: 0.1,
	}
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeBot
	}
	if c.Mode == ModeHuman && c.PickTimeSeconds == 0 {
		c.PickTimeSeconds = DefaultHumanPickTimeSeconds
	}
	return c
}

func (c Config) validate() error {
	switch c.Mode {
	case "", ModeBot, ModeHuman:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.PickTimeSeconds < 0 {
		return fmt.Errorf("pick time cannot be negative")
	}
	for name, rate := range map[string]float64{"skip": c.SkipRate, "out-of-turn": c.OutOfTurnRate, "double-submit": c.DoubleSubmitRate} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s rate must be within [0, 1]", name)
		}
	}
	if c.Teams < 1 {
		return fmt.Errorf("teams must be at least 1")
	}
	if c.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1")
	}
	if c.Seed == "" {
		return fmt.Errorf("seed is required")
	}
	if c.PoolSize != 0 && c.PoolSize < c.Teams*c.Rounds {
		return fmt.Errorf("pool of %d players cannot fill %d picks", c.PoolSize, c.Teams*c.Rounds)
	}
	return nil
}

func (c Config) poolSize() int {
	if c.PoolSize > 0 {
		return c.PoolSize
	}
	picks := c.Teams * c.Rounds
	return picks + picks/4
}

// DraftID is the id a mock draft with this seed gets.
func DraftID(seed string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("draft:"+seed))
}

// Harness runs mock drafts against an in-memory store.
type Harness struct {
	clock clockwork.Clock
	sink  events.Sink
}

// NewHarness creates a harness. sink receives every domain event the draft
// emits and may be nil.
func NewHarness(clock clockwork.Clock, sink events.Sink) *Harness {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if sink == nil {
		sink = events.Discard{}
	}
	return &Harness{clock: clock, sink: sink}
}

// Run creates, starts and drives a draft until it completes. In bot mode the
// same config always produces the same picks.
func (h *Harness) Run(ctx context.Context, cfg Config) (*Results, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid mock draft config: %w", err)
	}
	cfg = cfg.withDefaults()

	store := repository.NewMemoryStore()
	pool := SyntheticPlayers(cfg.Seed, cfg.poolSize())
	store.PutPlayers(pool)

	league, participants := BotLeague(cfg, h.clock.Now())
	store.PutLeague(league)

	picks := pick.NewApp(store, h.sink, h.clock, 0)
	monitor := orchestrator.NewMonitor(store, picks, orchestrator.NewBestAvailableStrategy(store), h.sink, h.clock)
	drafts := draft.NewApp(store, store, h.sink, h.clock, draft.Defaults{
		Rounds: cfg.Rounds,
		Snake:  cfg.Snake,
	})

	snake := cfg.Snake
	req := draft.CreateDraftRequest{
		ID:       DraftID(cfg.Seed),
		LeagueID: league.League.ID,
		Rounds:   cfg.Rounds,
		Snake:    &snake,
		Instant:  cfg.Mode == ModeBot,
	}
	if cfg.Mode == ModeHuman {
		req.PickTimeSeconds = cfg.PickTimeSeconds
	}
	d, err := drafts.CreateDraft(ctx, req)
	if err != nil {
		return nil, err
	}

	startedAt := h.clock.Now().UTC()
	snap, err := drafts.StartDraft(ctx, draft.StartDraftRequest{
		DraftID: d.ID,
		ActorID: draft.OperatorActor,
		Force:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mock draft: %w", err)
	}

	logger := log.With().Str("draft_id", d.ID.String()).Str("seed", cfg.Seed).Str("mode", string(cfg.Mode)).Logger()
	logger.Info().Int("teams", cfg.Teams).Int("rounds", cfg.Rounds).Msg("mock draft started")

	var human *humanRun
	if cfg.Mode == ModeHuman {
		human = newHumanRun(cfg, d.ID, h.clock, store, picks, monitor, participants, pool)
		snap, err = human.run(ctx, snap)
		if err != nil {
			return nil, err
		}
	} else {
		total := cfg.Teams * cfg.Rounds
		for i := 0; i < total && snap.Phase != models.DraftPhaseComplete; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			snap, err = monitor.CheckDraft(ctx, d.ID)
			if err != nil {
				return nil, fmt.Errorf("autopick failed at pick %d: %w", i+1, err)
			}
		}
	}
	if snap.Phase != models.DraftPhaseComplete {
		return nil, fmt.Errorf("mock draft stopped at pick %d in phase %s", snap.PickIndex, snap.Phase)
	}
	completedAt := h.clock.Now().UTC()

	records, err := picks.ListPicks(ctx, d.ID)
	if err != nil {
		return nil, err
	}

	res := buildResults(cfg, d.ID, participants, records, pool, snap)
	res.Draft.StartedAt = startedAt
	res.Draft.CompletedAt = completedAt
	res.Draft.Metrics.DurationSec = completedAt.Sub(startedAt).Seconds()
	if human != nil {
		human.fillMetrics(&res.Draft.Metrics)
	}

	logger.Info().
		Int("picks", res.Draft.Metrics.TotalPicks).
		Int("autopicks", res.Draft.Metrics.AutopicksCount).
		Int("manual_picks", res.Draft.Metrics.ManualPicks).
		Int("out_of_turn", res.Draft.Metrics.OutOfTurnAttempts).
		Int("retries", res.Draft.Metrics.ConcurrencyRetries).
		Bool("valid", res.Validation.Passed()).
		Float64("duration_sec", res.Draft.Metrics.DurationSec).
		Msg("mock draft completed")
	return res, nil
}

// BotLeague builds a league whose members join in slot order, so the
// resolved draft order is Bot Team 1..N. Ids are derived from cfg.Seed.
func BotLeague(cfg Config, now time.Time) (models.LeagueConfig, []Participant) {
	leagueID := uuid.NewSHA1(namespace, []byte("league:"+cfg.Seed))
	now = now.UTC()

	lc := models.LeagueConfig{
		League: models.League{
			ID:             leagueID,
			Name:           cfg.Name,
			CommissionerID: "bot-1",
			Phase:          models.LeaguePhaseScheduled,
			MaxTeams:       cfg.Teams,
			DraftRounds:    cfg.Rounds,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}

	participants := make([]Participant, 0, cfg.Teams)
	for slot := 1; slot <= cfg.Teams; slot++ {
		owner := fmt.Sprintf("bot-%d", slot)
		team := models.FantasyTeam{
			ID:        uuid.NewSHA1(namespace, []byte(fmt.Sprintf("team:%s:%d", cfg.Seed, slot))),
			LeagueID:  leagueID,
			OwnerID:   owner,
			Name:      fmt.Sprintf("Bot Team %d", slot),
			CreatedAt: now,
		}
		lc.Members = append(lc.Members, models.LeagueMember{LeagueID: leagueID, UserID: owner, JoinedAt: now.Add(time.Duration(slot) * time.Second)})
		lc.Teams = append(lc.Teams, team)
		participants = append(participants, Participant{
			ID:          team.ID.String(),
			Slot:        slot,
			DisplayName: team.Name,
		})
	}
	return lc, participants
}

func buildResults(cfg Config, draftID uuid.UUID, participants []Participant, records []models.PickRecord, pool []models.Player, snap *models.DraftState) *Results {
	slots := make(map[string]int, len(participants))
	for _, p := range participants {
		slots[p.ID] = p.Slot
	}
	players := make(map[string]models.Player, len(pool))
	for _, p := range pool {
		players[p.ID] = p
	}

	res := &Results{
		Draft: DraftInfo{
			ID:       draftID.String(),
			Name:     cfg.Name,
			Status:   string(snap.Phase),
			Seed:     cfg.Seed,
			NumTeams: cfg.Teams,
			Rounds:   cfg.Rounds,
			Snake:    cfg.Snake,
			Mode:     string(cfg.Mode),
		},
		Participants: participants,
	}

	teams := make([]TeamSummary, len(participants))
	for i, p := range participants {
		teams[i] = TeamSummary{
			Slot:           p.Slot,
			DisplayName:    p.DisplayName,
			PositionCounts: map[string]int{},
		}
	}

	for _, r := range records {
		slot := slots[r.ParticipantID]
		res.Picks = append(res.Picks, PickEntry{
			Round:         r.Round,
			Overall:       r.Overall,
			Slot:          slot,
			ParticipantID: r.ParticipantID,
			PlayerID:      r.PlayerID,
			Autopick:      r.Autopick,
			PickedAt:      r.PickedAt,
		})
		if r.Autopick {
			res.Draft.Metrics.AutopicksCount++
		} else {
			res.Draft.Metrics.ManualPicks++
		}
		if slot < 1 || slot > len(teams) {
			continue
		}

		pl := players[r.PlayerID]
		t := &teams[slot-1]
		t.Players = append(t.Players, RosterPlayer{
			Name:     pl.FullName,
			Position: pl.Position,
			Team:     pl.Team,
			College:  pl.College,
			Overall:  r.Overall,
			Round:    r.Round,
		})
		t.PositionCounts[pl.Position]++
		t.TotalPlayers++
	}

	res.Draft.Metrics.TotalPicks = len(records)
	res.SummaryByTeam = teams
	res.Validation = validateRecords(records, cfg.Teams*cfg.Rounds, snap)
	return res
}

func validateRecords(records []models.PickRecord, want int, snap *models.DraftState) Validation {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[r.PlayerID] = true
	}
	return Validation{
		NoDuplicatePlayers: len(seen) == len(records),
		CorrectPickCount:   len(records) == want,
		DraftComplete:      snap.Phase == models.DraftPhaseComplete,
	}
}
