package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"spot_rental/internal/adapters/auth"
	server "spot_rental/internal/adapters/http_server"
	"spot_rental/internal/adapters/observability"
	redisad "spot_rental/internal/adapters/redis"
	"spot_rental/internal/app"
	"spot_rental/internal/domain"
	"spot_rental/internal/shared"
	"spot_rental/internal/storage/memory"
	mysqlrepo "spot_rental/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	store := openStore(ctx, cfg)

	// redis backs the read cache and the logout denylist; both are optional
	var (
		cache   domain.Cache
		revoked domain.TokenDenylist
	)
	if cfg.RedisAddr != "" {
		rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; continuing")
		}
		defer rdb.Close()
		cache = redisad.New(rdb)
		revoked = redisad.NewDenylist(rdb)
	}

	// deps
	q := app.NewQueryService(store, cache, cfg.CacheTTL)
	cmds := app.NewCommandService(store, cache, cfg.CacheTTL)
	sessions := app.NewSessionService(store, 0)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiresIn)

	// http
	srv := server.New(server.Options{Timeout: cfg.RequestTimeout, Dev: cfg.IsDev(), TrustProxy: cfg.TrustProxy})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:       q,
		C:       cmds,
		S:       sessions,
		Auth:    server.NewAuthenticator(tokens, revoked, sessions, !cfg.IsDev()),
		Limiter: server.NewIPLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		Dev:     cfg.IsDev(),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(ctx context.Context, cfg shared.Config) domain.Store {
	if cfg.Storage == "memory" {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return memory.New()
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	if cfg.AutoMigrate {
		if err := mysqlrepo.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	return mysqlrepo.New(db)
}
