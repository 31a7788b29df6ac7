package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"vecdb/config"
)

var (
	cfgFile    string
	cfg        *config.Config
	rootDir    string
	callerFlag string
	rebuildArg bool
	verbose    bool
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vecdb",
	Short: "Embedded vector-similarity store",
	Long: `vecdb keeps a fixed-dimension k-d tree index over content documents,
answers k-nearest-neighbor queries, and records every inserted document in a
durable append-only log.

The in-memory index does not survive a restart on its own. Pass --rebuild (or
set startup.rebuild_from_log) to replay the log when the store opens.

Example usage:
  vecdb init                                   # Create store metadata
  vecdb add -c "hello" -e 0.1,0.2,0.3          # Add a document
  vecdb search -e 0.1,0.2,0.3 -k 5 --rebuild   # Nearest documents
  vecdb import data --include "**/*.jsonl"     # Bulk import JSONL files`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// A missing .env file is not an error.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.ApplyEnv(); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = newLogger(cfg.Logging, verbose)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./vecdb.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "store directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&callerFlag, "as", "", "caller identity (default $VECDB_CALLER or the OS user)")
	rootCmd.PersistentFlags().BoolVar(&rebuildArg, "rebuild", false, "replay the durable log into the index on startup")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func newLogger(lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
