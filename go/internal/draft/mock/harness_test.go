package mock

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/livedraft/go/internal/draft/events"
)

func runDraft(t *testing.T, cfg Config) (*Results, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	h := NewHarness(clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)), rec)
	res, err := h.Run(context.Background(), cfg)
	require.NoError(t, err)
	return res, rec
}

func smallConfig() Config {
	return Config{Name: "Test Draft", Teams: 4, Rounds: 3, Seed: "TEST-SEED", Snake: true}
}

func TestRun_CompletesWithSnakeOrder(t *testing.T) {
	res, rec := runDraft(t, smallConfig())

	assert.Equal(t, "complete", res.Draft.Status)
	assert.Equal(t, 12, res.Draft.Metrics.TotalPicks)
	assert.Equal(t, 12, res.Draft.Metrics.AutopicksCount)
	assert.Zero(t, res.Draft.Metrics.ManualPicks)
	assert.Equal(t, "bot", res.Draft.Mode)
	assert.Equal(t, Validation{NoDuplicatePlayers: true, CorrectPickCount: true, DraftComplete: true}, res.Validation)
	require.Len(t, res.Picks, 12)

	var slots []int
	seen := map[string]bool{}
	for i, p := range res.Picks {
		assert.Equal(t, i+1, p.Overall)
		assert.Equal(t, i/4+1, p.Round)
		assert.False(t, seen[p.PlayerID], "player %s drafted twice", p.PlayerID)
		seen[p.PlayerID] = true
		slots = append(slots, p.Slot)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 4, 3, 2, 1, 1, 2, 3, 4}, slots)

	for _, team := range res.SummaryByTeam {
		assert.Equal(t, 3, team.TotalPlayers)
		assert.Len(t, team.Players, 3)
		total := 0
		for _, n := range team.PositionCounts {
			total += n
		}
		assert.Equal(t, 3, total)
	}
	assert.Equal(t, "Bot Team 1", res.SummaryByTeam[0].DisplayName)

	assert.Equal(t, 1, rec.Count(events.DraftStarted))
	assert.Equal(t, 12, rec.Count(events.PickMade))
	assert.Equal(t, 1, rec.Count(events.DraftCompleted))
}

func TestRun_BestAvailableGoesFirst(t *testing.T) {
	cfg := smallConfig()
	res, _ := runDraft(t, cfg)

	pool := SyntheticPlayers(cfg.Seed, cfg.poolSize())
	best := pool[0]
	for _, p := range pool[1:] {
		if p.Rating > best.Rating || (p.Rating == best.Rating && p.FantasyPoints > best.FantasyPoints) {
			best = p
		}
	}
	assert.Equal(t, best.ID, res.Picks[0].PlayerID)
}

func TestRun_Deterministic(t *testing.T) {
	a, _ := runDraft(t, smallConfig())
	b, _ := runDraft(t, smallConfig())

	assert.Equal(t, a.Draft.ID, b.Draft.ID)
	require.Len(t, b.Picks, len(a.Picks))
	for i := range a.Picks {
		assert.Equal(t, a.Picks[i].PlayerID, b.Picks[i].PlayerID)
		assert.Equal(t, a.Picks[i].ParticipantID, b.Picks[i].ParticipantID)
	}

	other := smallConfig()
	other.Seed = "OTHER-SEED"
	c, _ := runDraft(t, other)
	assert.NotEqual(t, a.Draft.ID, c.Draft.ID)
}

func TestRun_LinearOrder(t *testing.T) {
	cfg := smallConfig()
	cfg.Snake = false
	res, _ := runDraft(t, cfg)

	var slots []int
	for _, p := range res.Picks {
		slots = append(slots, p.Slot)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}, slots)
}

func TestRun_InvalidConfig(t *testing.T) {
	h := NewHarness(clockwork.NewFakeClock(), nil)
	ctx := context.Background()

	_, err := h.Run(ctx, Config{Teams: 0, Rounds: 1, Seed: "x"})
	assert.Error(t, err)
	_, err = h.Run(ctx, Config{Teams: 2, Rounds: 1})
	assert.Error(t, err)
	_, err = h.Run(ctx, Config{Teams: 4, Rounds: 4, Seed: "x", PoolSize: 10})
	assert.Error(t, err)
}

func TestSyntheticPlayers(t *testing.T) {
	a := SyntheticPlayers("BOT-SEED-001", 50)
	b := SyntheticPlayers("BOT-SEED-001", 50)
	require.Len(t, a, 50)
	assert.Equal(t, a, b)

	ids := map[string]bool{}
	for _, p := range a {
		assert.True(t, p.Eligible)
		assert.Contains(t, Positions, p.Position)
		assert.NotEmpty(t, p.FullName)
		assert.False(t, ids[p.ID])
		ids[p.ID] = true
	}
}

func TestWriteArtifacts(t *testing.T) {
	res, _ := runDraft(t, smallConfig())
	out := t.TempDir()

	dir, err := WriteArtifacts(out, res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, res.Draft.ID), dir)

	data, err := os.ReadFile(filepath.Join(dir, res.Draft.ID+".json"))
	require.NoError(t, err)
	var decoded Results
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, res.Draft.Metrics.TotalPicks, decoded.Draft.Metrics.TotalPicks)
	assert.Len(t, decoded.SummaryByTeam, 4)
	assert.True(t, decoded.Validation.Passed())

	f, err := os.Open(filepath.Join(dir, "team_1.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Round", "Overall", "Position", "Name", "Team", "College"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "1", rows[1][1])

	summary, err := os.ReadFile(filepath.Join(dir, "SUMMARY.md"))
	require.NoError(t, err)
	text := string(summary)
	assert.True(t, strings.HasPrefix(text, "# Mock Draft Results - Test Draft"))
	assert.Contains(t, text, "- **Validation**: passed")
	assert.Contains(t, text, "## Top 10 Overall Picks")
	assert.Contains(t, text, "### Bot Team 4 (Slot 4)")
	assert.Contains(t, text, "## Position Distribution Summary")
}

func humanConfig() Config {
	cfg := smallConfig()
	cfg.Mode = ModeHuman
	cfg.PickTimeSeconds = 30
	return cfg
}

// runHuman runs a human-mode draft on a fake clock that jumps ahead whenever
// the harness waits out a pick window.
func runHuman(t *testing.T, cfg Config) *Results {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC))
	go func() {
		for clock.BlockUntilContext(ctx, 1) == nil {
			clock.Advance(time.Duration(cfg.PickTimeSeconds) * time.Second)
		}
	}()

	res, err := NewHarness(clock, nil).Run(ctx, cfg)
	require.NoError(t, err)
	return res
}

func TestRunHuman_AllManual(t *testing.T) {
	cfg := humanConfig()
	cfg.SkipRate = 0
	res := runHuman(t, cfg)

	assert.Equal(t, "human", res.Draft.Mode)
	assert.True(t, res.Validation.Passed())
	assert.Equal(t, 12, res.Draft.Metrics.TotalPicks)
	assert.Equal(t, 12, res.Draft.Metrics.ManualPicks)
	assert.Zero(t, res.Draft.Metrics.AutopicksCount)
	assert.Zero(t, res.Draft.Metrics.SkippedTurns)

	var slots []int
	for _, p := range res.Picks {
		slots = append(slots, p.Slot)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 4, 3, 2, 1, 1, 2, 3, 4}, slots)
}

func TestRunHuman_SkippedTurnsAreAutopicked(t *testing.T) {
	cfg := humanConfig()
	cfg.SkipRate = 1
	res := runHuman(t, cfg)

	assert.True(t, res.Validation.Passed())
	assert.Equal(t, 12, res.Draft.Metrics.AutopicksCount)
	assert.Zero(t, res.Draft.Metrics.ManualPicks)
	assert.Equal(t, 12, res.Draft.Metrics.SkippedTurns)
}

func TestRunHuman_RacingSubmissions(t *testing.T) {
	cfg := humanConfig()
	cfg.Teams = 6
	cfg.Rounds = 4
	cfg.SkipRate = 0.25
	cfg.OutOfTurnRate = 1
	cfg.DoubleSubmitRate = 1
	res := runHuman(t, cfg)

	m := res.Draft.Metrics
	assert.True(t, res.Validation.NoDuplicatePlayers)
	assert.True(t, res.Validation.CorrectPickCount)
	assert.True(t, res.Validation.DraftComplete)
	assert.Equal(t, 24, m.TotalPicks)
	assert.Equal(t, m.TotalPicks, m.ManualPicks+m.AutopicksCount)

	// all five off-clock seats try on the first pick alone
	assert.GreaterOrEqual(t, m.OutOfTurnAttempts, 5)
	// each duplicated submission that landed was answered with one replay
	assert.LessOrEqual(t, m.Replays, m.DuplicateSubmissions)
	assert.Positive(t, m.DuplicateSubmissions)

	for i, p := range res.Picks {
		assert.Equal(t, i+1, p.Overall)
	}
}

func TestRunHuman_StaleBoardsRetry(t *testing.T) {
	cfg := humanConfig()
	cfg.Teams = 8
	cfg.Rounds = 6
	cfg.PoolSize = 50
	cfg.SkipRate = 0
	res := runHuman(t, cfg)

	assert.True(t, res.Validation.Passed())
	assert.Equal(t, 48, res.Draft.Metrics.ManualPicks)
	assert.Positive(t, res.Draft.Metrics.ConcurrencyRetries)
}

func TestConfig_ValidatesHumanOptions(t *testing.T) {
	cfg := humanConfig()
	cfg.SkipRate = 1.5
	assert.Error(t, cfg.validate())

	cfg = humanConfig()
	cfg.Mode = "robot"
	assert.Error(t, cfg.validate())

	cfg = humanConfig()
	cfg.PickTimeSeconds = 0
	require.NoError(t, cfg.validate())
	assert.Equal(t, DefaultHumanPickTimeSeconds, cfg.withDefaults().PickTimeSeconds)
}
