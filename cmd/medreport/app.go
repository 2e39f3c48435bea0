package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
	repo "github.com/joseph-ayodele/medreport/internal/repository"
)

// app bundles what every subcommand needs.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	processor *pipeline.Processor
	db        *repo.DB
}

func newApp(ctx context.Context, f *rootFlags) (*app, error) {
	cfg, err := common.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.App.LogLevel = f.logLevel
	}
	if f.dsn != "" {
		cfg.Database.DSN = f.dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// stdout carries results, logs go to stderr.
	logger := common.NewLogger(cfg.App, os.Stderr)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}
	var jobs pipeline.JobRecorder
	if cfg.Database.DSN != "" {
		db, err := repo.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		jobs = repo.NewExtractJobRepository(db, logger)
	}
	a.processor = pipeline.NewFromConfig(cfg, jobs, logger)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
