package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/recall/internal/config"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/contextmgr"
	"github.com/sandevgo/recall/internal/service/summary"
	"github.com/sandevgo/recall/internal/storage/sqlite"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/sandevgo/recall/pkg/tokens"
)

// newManager assembles the full stack: config, sqlite storage, token counter
// and the context manager. The returned DB must be closed on shutdown.
func newManager(ctx context.Context) (*contextmgr.Manager, *config.AppConfig, *sql.DB) {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	cfg := config.NewAppConfig(ctx)

	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	counter := core.TokenCounter(tokens.Estimate)
	if cfg.TokenModel != "" {
		tk, err := tokens.NewTiktokenCounter(cfg.TokenModel)
		if err != nil {
			logger.Fatal().Err(err).Str("model", cfg.TokenModel).Msg("failed to initialize token counter")
		}
		counter = tk
	}

	manager, err := contextmgr.NewManager(contextmgr.Config{
		Storage:        sqlite.NewStore(db),
		Summarizer:     summary.NewSummarizer(),
		Counter:        counter,
		TokenLimit:     cfg.TokenLimit,
		CacheSize:      cfg.TokenCacheSize,
		MinRecentPairs: cfg.MinRecentPairs,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize context manager")
	}

	return manager, cfg, db
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
