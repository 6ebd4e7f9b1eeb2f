package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/livedraft/go/internal/dbconfig"
	"github.com/mcdev12/livedraft/go/internal/draft/mock"
)

// Creates a bot league (members plus fantasy teams) ready for a draft. The
// ids are derived from LEAGUE_SEED, so rerunning is a no-op.
func main() {
	ctx := context.Background()

	cfg := mock.DefaultConfig()
	cfg.Name = envOr("LEAGUE_NAME", "Bot League")
	cfg.Seed = envOr("LEAGUE_SEED", cfg.Seed)
	if v := os.Getenv("LEAGUE_TEAMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			fmt.Fprintf(os.Stderr, "invalid LEAGUE_TEAMS %q\n", v)
			os.Exit(1)
		}
		cfg.Teams = n
	}
	if v := os.Getenv("LEAGUE_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "invalid LEAGUE_ROUNDS %q\n", v)
			os.Exit(1)
		}
		cfg.Rounds = n
	}
	lc, _ := mock.BotLeague(cfg, time.Now())

	// Connect using shared dbconfig
	dbCfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// One transaction so a partial league is never visible
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		l := lc.League
		if _, err := tx.Exec(ctx, `
            INSERT INTO leagues (
              id, name, commissioner_id, phase, max_teams, draft_rounds, created_at, updated_at
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            ON CONFLICT (id) DO NOTHING
        `, l.ID, l.Name, l.CommissionerID, string(l.Phase), l.MaxTeams, l.DraftRounds, l.CreatedAt, l.UpdatedAt); err != nil {
			return fmt.Errorf("insert league: %w", err)
		}
		for _, m := range lc.Members {
			if _, err := tx.Exec(ctx, `
                INSERT INTO league_members (league_id, user_id, joined_at)
                VALUES ($1,$2,$3)
                ON CONFLICT (league_id, user_id) DO NOTHING
            `, m.LeagueID, m.UserID, m.JoinedAt); err != nil {
				return fmt.Errorf("insert member %s: %w", m.UserID, err)
			}
		}
		for _, t := range lc.Teams {
			if _, err := tx.Exec(ctx, `
                INSERT INTO fantasy_teams (id, league_id, owner_id, name, created_at)
                VALUES ($1,$2,$3,$4,$5)
                ON CONFLICT (league_id, owner_id) DO NOTHING
            `, t.ID, t.LeagueID, t.OwnerID, t.Name, t.CreatedAt); err != nil {
				return fmt.Errorf("insert team %s: %w", t.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed league: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf(
		"League seed complete: id=%s name=%q teams=%d rounds=%d\n",
		lc.League.ID, lc.League.Name, len(lc.Teams), lc.League.DraftRounds,
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
