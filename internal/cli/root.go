// Package cli implements the craftchain command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/atlasforge/craftchain/internal/config"
	"github.com/atlasforge/craftchain/internal/craft/db"
	"github.com/atlasforge/craftchain/internal/craft/engine"
	"github.com/atlasforge/craftchain/internal/ui"
)

// Persistent flags shared by every command.
var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
	flagNoColor  bool
)

// cfg holds the resolved settings for the running command, populated
// before any RunE fires.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "craftchain",
	Short: "Crafting catalog query tool",
	Long: `craftchain answers build questions over a crafting formula catalog:
bills of materials, self-sustaining production cycles, item valuations
and catalog statistics. The catalog lives in a local SQLite database
fed by JSON dumps.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "settings file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite catalog path (overrides the settings file)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable ANSI colors")
}

// setup resolves the settings file and flag overrides into cfg and
// installs the logger.
func setup() error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	cfg = loaded

	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagNoColor {
		ui.DisableColor()
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// openCatalog opens the database and builds the query engine over it.
// The closer releases the database.
func openCatalog(ctx context.Context) (*engine.Engine, func(), error) {
	database, err := db.OpenAndInit(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	catalog, err := db.NewCatalog(database, 0, slog.Default())
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}

	eng := engine.New(catalog, engine.Options{
		CraftTime:   cfg.CraftTime.Duration,
		CycleLimits: cfg.Refineries.RefineryLimits(),
		MaxDepth:    cfg.MaxDepth,
		SearchLimit: cfg.SearchLimit,
	}, slog.Default())

	return eng, func() { _ = database.Close() }, nil
}

// formatValue renders an item value without a trailing .0 for whole
// numbers.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
