package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/assessment"
	"github.com/abhisek/wordsmith/internal/config"
	"github.com/abhisek/wordsmith/internal/llm"
	"github.com/abhisek/wordsmith/internal/logging"
	"github.com/abhisek/wordsmith/internal/mastery"
	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
	"github.com/abhisek/wordsmith/internal/telemetry"
	"github.com/abhisek/wordsmith/internal/writing"
)

// app bundles what every database-backed command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// loadConfig reads settings with the command's flags taking priority.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags())
}

// openApp loads config, builds the logger and opens the store.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("database opened", zap.String("path", dbPath))
	return &app{cfg: cfg, logger: logger, store: st}, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// resolveDBPath returns the database path from config (--db flag or
// WORDSMITH_DB), then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// writingService wires the oracle, progression and mastery engines onto
// the store. metrics may be nil.
func (a *app) writingService(ctx context.Context, metrics *telemetry.Metrics) (*writing.Service, error) {
	if err := a.cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	provider, err := llm.NewProvider(ctx, a.cfg.LLM, a.store.EventRepo(), a.logger)
	if err != nil {
		return nil, err
	}

	oracle := assessment.NewOracle(provider, assessment.OracleConfig{
		MaxTokens:   a.cfg.Assessment.MaxTokens,
		Temperature: a.cfg.Assessment.Temperature,
	})
	prog := progression.NewService(a.store.ProgressRepo(), a.store.LevelRepo(), progression.ServiceConfig{
		WriteAttempts: a.cfg.Progression.WriteAttempts,
		WriteBackoff:  a.cfg.Progression.WriteBackoff,
	}, a.logger)

	return writing.NewService(writing.Deps{
		Levels:      a.store.LevelRepo(),
		Attempts:    a.store.AttemptRepo(),
		Oracle:      oracle,
		Progression: prog,
		Mastery:     mastery.NewService(a.store.MasteryRepo(), a.cfg.Mastery.Window, a.logger),
		Metrics:     metrics,
		Logger:      a.logger,
	}), nil
}
