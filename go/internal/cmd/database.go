package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/dbconfig"
)

func setupDatabase(ctx context.Context, migrate bool) (*sql.DB, dbconfig.Config, error) {
	dbCfg := dbconfig.NewConfigFromEnv()

	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, dbCfg, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, dbCfg, fmt.Errorf("failed to ping database: %w", err)
	}

	if migrate {
		if err := dbconfig.Migrate(ctx, database); err != nil {
			database.Close()
			return nil, dbCfg, err
		}
	}

	log.Info().Str("database", dbCfg.String()).Msg("connected to database")
	return database, dbCfg, nil
}
