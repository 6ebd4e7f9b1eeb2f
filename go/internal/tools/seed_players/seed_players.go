package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/livedraft/go/internal/dbconfig"
	"github.com/mcdev12/livedraft/go/internal/draft/mock"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// Loads the draftable player pool. PLAYERS_FILE points at a JSON array of
// players; without it a synthetic pool is generated from PLAYERS_SEED.
func main() {
	ctx := context.Background()

	// 1) Load or generate the pool
	var players []models.Player
	if path := os.Getenv("PLAYERS_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &players); err != nil {
			fmt.Fprintf(os.Stderr, "unmarshal players: %v\n", err)
			os.Exit(1)
		}
	} else {
		seed := envOr("PLAYERS_SEED", "BOT-SEED-001")
		size, err := strconv.Atoi(envOr("PLAYERS_SIZE", "300"))
		if err != nil || size <= 0 {
			fmt.Fprintf(os.Stderr, "invalid PLAYERS_SIZE\n")
			os.Exit(1)
		}
		players = mock.SyntheticPlayers(seed, size)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert players; ratings move between seasons
	total, inserted, updated, errs := len(players), 0, 0, 0
	for _, p := range players {
		var wasInserted bool
		err := pool.QueryRow(ctx, `
            INSERT INTO players (
              id, full_name, position, team, college, eligible, rating, fantasy_points
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            ON CONFLICT (id) DO UPDATE SET
              full_name = EXCLUDED.full_name,
              position = EXCLUDED.position,
              team = EXCLUDED.team,
              college = EXCLUDED.college,
              eligible = EXCLUDED.eligible,
              rating = EXCLUDED.rating,
              fantasy_points = EXCLUDED.fantasy_points
            RETURNING (xmax = 0)
        `, p.ID, p.FullName, p.Position, p.Team, p.College, p.Eligible, p.Rating, p.FantasyPoints).Scan(&wasInserted)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error seeding player %s: %v\n", p.ID, err)
			errs++
			continue
		}
		if wasInserted {
			inserted++
		} else {
			updated++
		}
	}
	fmt.Printf(
		"Players seed: total=%d inserted=%d updated=%d errors=%d\n",
		total, inserted, updated, errs,
	)
	if errs > 0 {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
