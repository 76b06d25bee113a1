package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/homepage/internal/config"
	hdbus "github.com/jmylchreest/homepage/internal/dbus"
	"github.com/jmylchreest/homepage/internal/homepage"
	"github.com/jmylchreest/homepage/internal/locale"
	"github.com/jmylchreest/homepage/internal/store"
	"github.com/jmylchreest/homepage/internal/theme"
	"github.com/jmylchreest/homepage/internal/tui"
)

func runPage(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var prefs store.Preferences = store.NewMemoryStore(nil)
	if prefStore != nil {
		prefs = prefStore.Bucket(store.LocalBucket)
	}

	scheme, closeScheme := colorScheme(config.ColorScheme(cfg.Theme.ColorScheme))
	defer closeScheme()

	var geolocator locale.Geolocator
	if geoEnabled() {
		geolocator = newGeoClient().ForIP("")
	}

	page, err := homepage.New(homepage.Options{
		Config:     cfg,
		Prefs:      prefs,
		Scheme:     scheme,
		Geolocator: geolocator,
		Logger:     logger,
		Visitor:    store.LocalBucket,
	})
	if err != nil {
		return err
	}

	if prefStore != nil {
		// Pick up "homepage prefs" edits made while the page is open.
		watcher, err := store.NewFileWatcher(prefStore, logger)
		if err != nil {
			logger.Warn("failed to create state file watcher", "error", err)
		} else {
			watcher.SetChangeCallback(page.RefreshPreferences)
			if err := watcher.Start(); err != nil {
				logger.Warn("failed to watch state file", "error", err)
			}
			defer func() { _ = watcher.Stop() }()
		}
	}

	palettes := theme.NewLoader(logger)
	palettes.LoadAll()

	return tui.Run(ctx, tui.RunOptions{
		Page:             page,
		Palettes:         palettes,
		ClipboardCommand: cfg.Clipboard.Command,
		Logger:           logger,
	})
}

// colorScheme returns the OS-level scheme signal for the configured source.
// "system" follows the desktop portal and falls back to light when no
// session bus is available.
func colorScheme(cs config.ColorScheme) (theme.SchemeSignal, func()) {
	switch cs {
	case config.ColorSchemeLight:
		return theme.StaticScheme(false), func() {}
	case config.ColorSchemeDark:
		return theme.StaticScheme(true), func() {}
	}

	portal, err := hdbus.NewPortalScheme(logger)
	if err != nil {
		logger.Info("desktop color scheme unavailable", "error", err)
		return theme.StaticScheme(false), func() {}
	}
	return portal, func() { _ = portal.Close() }
}
