package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"listing_intake/internal/adapters/observability"
	redisad "listing_intake/internal/adapters/redis"
	"listing_intake/internal/app"
	"listing_intake/internal/domain"
	"listing_intake/internal/importer"
	"listing_intake/internal/shared"
	mysqlrepo "listing_intake/internal/storage/mysql"
)

type options struct {
	Workers int  `short:"w" long:"workers" description:"concurrent creates (defaults to IMPORT_WORKERS)"`
	NoCache bool `long:"no-cache" description:"skip Redis cache invalidation"`
	Args    struct {
		File string `positional-arg-name:"FILE" description:"YAML or JSON list of submissions" required:"yes"`
	} `positional-args:"yes"`
}

func main() {
	opts := &options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			return
		}
		parser.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	workers := cfg.ImportWorkers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	items, err := importer.Load(opts.Args.File)
	if err != nil {
		log.Fatal().Err(err).Str("file", opts.Args.File).Msg("load submissions failed")
	}
	log.Info().Str("file", opts.Args.File).Int("items", len(items)).Int("workers", workers).Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	repo := mysqlrepo.New(db)
	var cache domain.Cache
	if !opts.NoCache {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	svc := app.NewListingService(repo, cache, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &importer.Runner{Creator: svc, Rejection: repo, Workers: workers, Source: filepath.Base(opts.Args.File)}
	sum, err := r.Run(ctx, items)
	if err != nil {
		log.Error().Err(err).Msg("import interrupted")
	}
	log.Info().
		Int64("created", sum.Created).
		Int64("rejected", sum.Rejected).
		Int64("failed", sum.Failed).
		Msg("import completed")
	if sum.Failed > 0 {
		os.Exit(1)
	}
}
