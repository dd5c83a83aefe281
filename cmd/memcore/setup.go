package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/carepath/memcore/internal/config"
	"github.com/carepath/memcore/internal/providers/llm"
	"github.com/carepath/memcore/internal/service/memory"
	"github.com/carepath/memcore/internal/storage/sqlite"
	"github.com/carepath/memcore/pkg/log"
	"github.com/carepath/memcore/pkg/srv"
)

// app wires configuration, storage and the memory engine. Shared by
// the daemon and the one-shot commands.
type app struct {
	db     *sql.DB
	engine *memory.Engine
	worker *memory.Worker
}

func newApp(ctx context.Context) *app {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	messages := sqlite.NewMessagesRepo(db)
	summaries := sqlite.NewSummariesRepo(db)
	pins := sqlite.NewPinsRepo(db)

	// 3. AI provider and summarizer gateway
	aiProvider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}
	summarizer := memory.NewLLMSummarizer(aiProvider)

	// 4. Token estimator
	estimator, err := memory.NewEstimator(appCfg.TokenEstimator)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token estimator")
	}

	// 5. Memory engine
	cache := memory.NewRecencyCache(messages, appCfg.CacheTTL)
	engine := memory.NewEngine(appCfg, messages, summaries, pins, summarizer, estimator, cache)

	return &app{
		db:     db,
		engine: engine,
		worker: memory.NewWorker(engine, messages, summaries, appCfg.WorkerInterval),
	}
}

func (a *app) Close() error {
	return a.db.Close()
}

func NewServices(ctx context.Context) []srv.Service {
	a := newApp(ctx)

	return []srv.Service{
		srv.NewCleanup(a.db.Close),
		a.worker,
	}
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
