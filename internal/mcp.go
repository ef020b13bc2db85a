package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/binhphanhai/crambook/internal/guideservice"
	"github.com/binhphanhai/crambook/internal/index"
	"github.com/binhphanhai/crambook/internal/mcpserver"
	"github.com/binhphanhai/crambook/internal/storage"
)

// RunMCP starts the MCP server on stdin/stdout and blocks until the client
// disconnects. Logs go to stderr because stdout carries the protocol.
func RunMCP(cfg *Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Corpus.Path, cfg.Corpus.Ignore...)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	lintOpts := cfg.Lint.Options()

	if err := index.Sync(db, store, lintOpts, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := guideservice.NewService(store, db, lintOpts)

	logger.Info("MCP server starting", slog.String("corpus_path", cfg.Corpus.Path))
	return mcpserver.New(svc, store).ServeStdio()
}
