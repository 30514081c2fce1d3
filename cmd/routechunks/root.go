package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"routechunks/internal/chunk"
	"routechunks/internal/config"
	"routechunks/internal/memo"
	"routechunks/internal/slogutil"
	"routechunks/internal/storage"
)

var (
	configFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "routechunks",
	Short: "Split route module exports into independent chunks",
	Long: `routechunks analyzes JavaScript/TypeScript route modules and, where a
configured export (clientAction, clientLoader by default) owns its code and
imports exclusively, emits that export as a self-contained chunk plus a main
module with the chunked exports removed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Path to a routechunks config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn or error (overrides config)")
}

// loadConfig resolves the effective configuration. Precedence for the log
// level: CLI flag > ROUTECHUNKS_LOG env var > config file.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if env := os.Getenv("ROUTECHUNKS_LOG"); env != "" {
		level = env
	}
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logger := slogutil.NewStderrLogger(slogutil.ParseLevel(level))
	return cfg, logger, nil
}

// openStore opens the configured cache backing store.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Cache.Backend {
	case "memory", "":
		return storage.NewMemory(), nil
	case "bolt":
		return storage.NewBolt(cfg.Cache.Path)
	case "sqlite":
		return storage.NewSQLite(cfg.Cache.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// newSplitter wires store, cache and splitter from configuration. The
// returned closer releases the backing store.
func newSplitter(cfg *config.Config, logger *slog.Logger) (*chunk.Splitter, io.Closer, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	cache := memo.New(store, logger)
	return chunk.NewSplitter(cache, cfg.ChunkNames, logger), store, nil
}
