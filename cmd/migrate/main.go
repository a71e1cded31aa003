package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pageza/pantrypal/backend/config"
	"github.com/pageza/pantrypal/backend/internal/database"
	"github.com/pageza/pantrypal/backend/internal/logger"
)

func main() {
	rollback := flag.Bool("rollback", false, "Drop every table instead of migrating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.Env.IsDevelopment())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.DBDriver == "mongo" {
		if *rollback {
			log.Fatal().Msg("rollback is not supported for mongo")
		}
		db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		defer db.Client().Disconnect(ctx)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("indexes are up to date")
		return
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.HealthCheck(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("database is not reachable")
	}

	if *rollback {
		err = database.DropTables(db)
	} else {
		err = database.RunMigrations(db)
	}
	if err != nil {
		log.Fatal().Err(err).Bool("rollback", *rollback).Msg("migration failed")
	}
}
