// Package main provides the CLI entrypoint for homepage.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/homepage/internal/config"
	"github.com/jmylchreest/homepage/internal/geo"
	"github.com/jmylchreest/homepage/internal/store"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose       bool
		configPath    string
		stateFile     string
		ephemeral     bool
		noGeolocation bool
	}
	logger  *slog.Logger
	logFile io.Closer

	// prefStore is nil with --ephemeral
	prefStore *store.FileStore
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "homepage",
	Short: "A personal homepage for the terminal",
	Long: `homepage renders a personal homepage in the terminal.

The page shows a name and biography in one of two languages, a row of social
links, and a light or dark theme. Theme and language choices are remembered
between runs. Without a remembered language the visitor's country decides.

Running homepage without a subcommand opens the page locally. Use
"homepage serve" to offer it over SSH.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(cmd); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if globalOpts.ephemeral {
			logger.Debug("running without a state file")
			return nil
		}

		statePath := globalOpts.stateFile
		if statePath == "" {
			if err := config.EnsureDataDir(); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			statePath = config.StatePath()
		}

		prefStore, err = store.OpenFileStore(statePath)
		if err != nil {
			return fmt.Errorf("failed to open state file: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != nil {
			_ = logFile.Close()
		}
		if prefStore != nil {
			return prefStore.Close()
		}
		return nil
	},
	// Default to the local page when no subcommand is provided
	RunE: runPage,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/homepage/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.stateFile, "state-file", "",
		"Path to preference state file (default: ~/.local/share/homepage/state.json)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.ephemeral, "ephemeral", false,
		"Keep preferences in memory only")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.noGeolocation, "no-geolocation", false,
		"Never look up the visitor's country")
}

// setupLogger configures the global slog logger. The local page owns the
// terminal, so it logs to a file instead of stderr.
func setupLogger(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if cmd.Name() == "serve" {
		level = slog.LevelInfo
	}
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if !cmd.HasParent() {
		if err := config.EnsureDataDir(); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		f, err := os.OpenFile(config.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		logFile = f
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// geoEnabled reports whether geolocation is allowed by flags and config.
func geoEnabled() bool {
	return !globalOpts.noGeolocation && !cfg.Locale.Disabled
}

// newGeoClient builds the lookup client from config.
func newGeoClient() *geo.Client {
	return geo.NewClient(geo.Options{
		Endpoint:        cfg.Locale.Endpoint,
		VisitorEndpoint: cfg.Locale.VisitorEndpoint,
		Timeout:         cfg.Locale.Timeout.Duration(),
		Logger:          logger,
		UserAgent:       "homepage/" + version,
	})
}
