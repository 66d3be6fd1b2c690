package main

import (
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"listing_intake/internal/adapters/assets"
	server "listing_intake/internal/adapters/http_server"
	"listing_intake/internal/adapters/observability"
	redisad "listing_intake/internal/adapters/redis"
	"listing_intake/internal/app"
	"listing_intake/internal/domain"
	"listing_intake/internal/shared"
	mysqlrepo "listing_intake/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var store domain.AssetStore
	if cfg.AssetsEnabled() {
		client, err := assets.New(cfg.AssetsBase, cfg.AssetsKey, cfg.AssetsRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize asset client")
		}
		store = client
	}

	cmd := app.NewListingService(repo, cache, store)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Cmd: cmd, Q: q, MaxUploadBytes: cfg.MaxUploadBytes})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
