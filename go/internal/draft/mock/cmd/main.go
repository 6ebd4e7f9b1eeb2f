package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/config"
	"github.com/mcdev12/livedraft/go/internal/draft/mock"
)

func main() {
	defaults := mock.DefaultConfig()

	var cfg mock.Config
	flag.StringVar(&cfg.Name, "name", defaults.Name, "draft name")
	flag.IntVar(&cfg.Teams, "teams", defaults.Teams, "number of bot teams")
	flag.IntVar(&cfg.Rounds, "rounds", defaults.Rounds, "number of rounds")
	flag.StringVar(&cfg.Seed, "seed", defaults.Seed, "seed for the player pool and draft id")
	flag.BoolVar(&cfg.Snake, "snake", defaults.Snake, "reverse the order on even rounds")
	flag.IntVar(&cfg.PoolSize, "pool", 0, "player pool size (default: picks + 25%)")
	mode := flag.String("mode", string(defaults.Mode), "bot (all autopicks) or human (concurrent seats)")
	flag.IntVar(&cfg.PickTimeSeconds, "pick-time", defaults.PickTimeSeconds, "human mode: seconds per pick")
	flag.Float64Var(&cfg.SkipRate, "skip-rate", defaults.SkipRate, "human mode: share of turns left to autopick")
	flag.Float64Var(&cfg.OutOfTurnRate, "out-of-turn-rate", defaults.OutOfTurnRate, "human mode: chance an off-clock seat submits")
	flag.Float64Var(&cfg.DoubleSubmitRate, "double-submit-rate", defaults.DoubleSubmitRate, "human mode: chance a pick is sent twice at once")
	out := flag.String("out", config.GetEnv("MOCK_DRAFT_OUT", "tmp/mock-drafts"), "artifact directory")
	flag.Parse()
	cfg.Mode = mock.Mode(*mode)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := mock.NewHarness(clockwork.NewRealClock(), nil).Run(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("mock draft failed")
	}

	dir, err := mock.WriteArtifacts(*out, res)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to save artifacts")
	}

	printReport(res, dir)
	if !res.Validation.Passed() {
		os.Exit(1)
	}
}

func printReport(res *mock.Results, dir string) {
	rule := strings.Repeat("=", 60)
	d := res.Draft

	fmt.Println(rule)
	fmt.Println("MOCK DRAFT COMPLETED")
	fmt.Println(rule)
	fmt.Printf("Draft:       %s (%s)\n", d.Name, d.ID)
	fmt.Printf("Seed:        %s\n", d.Seed)
	fmt.Printf("Duration:    %.2fs\n", d.Metrics.DurationSec)
	fmt.Printf("Mode:        %s\n", d.Mode)
	fmt.Printf("Total picks: %d (%d autopicks, %d manual)\n", d.Metrics.TotalPicks, d.Metrics.AutopicksCount, d.Metrics.ManualPicks)
	if d.Mode == string(mock.ModeHuman) {
		fmt.Printf("Skipped:     %d turns\n", d.Metrics.SkippedTurns)
		fmt.Printf("Out of turn: %d attempts\n", d.Metrics.OutOfTurnAttempts)
		fmt.Printf("Retries:     %d\n", d.Metrics.ConcurrencyRetries)
		fmt.Printf("Duplicates:  %d sent, %d replayed\n", d.Metrics.DuplicateSubmissions, d.Metrics.Replays)
	}

	v := res.Validation
	fmt.Println("\nValidation:")
	fmt.Printf("  No duplicate players: %t\n", v.NoDuplicatePlayers)
	fmt.Printf("  Correct pick count:   %t\n", v.CorrectPickCount)
	fmt.Printf("  Draft complete:       %t\n", v.DraftComplete)

	fmt.Println("\nTeams:")
	for _, t := range res.SummaryByTeam {
		parts := make([]string, 0, len(t.PositionCounts))
		for _, pos := range mock.Positions {
			if n := t.PositionCounts[pos]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s:%d", pos, n))
			}
		}
		fmt.Printf("  %-12s %2d players (%s)\n", t.DisplayName, t.TotalPlayers, strings.Join(parts, ", "))
	}

	fmt.Printf("\nArtifacts: %s\n", dir)
	fmt.Println(rule)
}
