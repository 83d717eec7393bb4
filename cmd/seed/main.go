package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"spot_rental/internal/adapters/observability"
	redisad "spot_rental/internal/adapters/redis"
	"spot_rental/internal/app"
	"spot_rental/internal/domain"
	"spot_rental/internal/shared"
	mysqlrepo "spot_rental/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	data, err := parseDataset(defaultData)
	if err != nil {
		log.Fatal().Err(err).Msg("seed data")
	}
	log.Info().
		Int("workers", cfg.SeedWorkers).
		Int("users", len(data.Users)).
		Int("spots", len(data.Spots)).
		Int("reviews", len(data.Reviews)).
		Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")
	if err := mysqlrepo.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	repo := mysqlrepo.New(db)

	// seeded writes go through the services, so cached list pages are dropped too
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rdb.Close()
		cache = redisad.New(rdb)
	}

	s := newSeeder(
		app.NewQueryService(repo, nil, 0),
		app.NewCommandService(repo, cache, cfg.CacheTTL),
		app.NewSessionService(repo, 0),
		cfg.SeedWorkers,
	)
	if err := s.Run(ctx, data); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}
