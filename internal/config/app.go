package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/carepath/memcore/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"MEMCORE_RUNTIME_PATH" envDefault:".memcore"`

	// Recency cache
	CacheTTL time.Duration `env:"MEMCORE_CACHE_TTL" envDefault:"5s"`

	// Context assembly
	ContextBudget int `env:"MEMCORE_CONTEXT_BUDGET" envDefault:"3000"`
	RecentWindow  int `env:"MEMCORE_RECENT_WINDOW" envDefault:"8"`
	PinLimit      int `env:"MEMCORE_PIN_LIMIT" envDefault:"5"`
	SummaryLimit  int `env:"MEMCORE_SUMMARY_LIMIT" envDefault:"3"`
	RecentFloor   int `env:"MEMCORE_RECENT_FLOOR" envDefault:"3"`

	// Token estimation: "chars" (len/4 approximation) or "tiktoken"
	TokenEstimator string `env:"MEMCORE_TOKEN_ESTIMATOR" envDefault:"chars"`

	// Summarization
	SummarizeThreshold int           `env:"MEMCORE_SUMMARIZE_THRESHOLD" envDefault:"15"`
	WorkerInterval     time.Duration `env:"MEMCORE_WORKER_INTERVAL" envDefault:"1m"`
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
	return filepath.Join(c.RuntimePath, "memcore.db")
}
