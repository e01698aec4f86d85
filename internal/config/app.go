package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/recall/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"RECALL_RUNTIME_PATH" envDefault:".recall"`

	// HTTP API
	ListenAddr string `env:"RECALL_LISTEN_ADDR" envDefault:"127.0.0.1:8321"`

	// Context management
	TokenLimit          int     `env:"RECALL_TOKEN_LIMIT" envDefault:"4000"`
	ImportanceThreshold float64 `env:"RECALL_IMPORTANCE_THRESHOLD" envDefault:"0.3"`
	MinRecentPairs      int     `env:"RECALL_MIN_RECENT_PAIRS" envDefault:"3"`

	// Token counting: empty model keeps the length heuristic, a model name
	// switches to tiktoken
	TokenModel     string `env:"RECALL_TOKEN_MODEL" envDefault:""`
	TokenCacheSize int    `env:"RECALL_TOKEN_CACHE_SIZE" envDefault:"4096"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "recall.db")
}
