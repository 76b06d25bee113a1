package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/homepage/internal/server"
	"github.com/jmylchreest/homepage/internal/theme"
)

var serveOpts struct {
	host string
	port int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the homepage over SSH",
	Long: `Serve the homepage over SSH. Every connection is one page load.

Visitors are remembered by public key fingerprint, or by address when they
connect without a key. The visitor's address decides the initial language
unless a choice has already been made.

Examples:
  homepage serve
  homepage serve --port 2323
  ssh -p 2222 localhost`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.host, "host", "",
		"Listen host (overrides config)")
	serveCmd.Flags().IntVar(&serveOpts.port, "port", 0,
		"Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveOpts.host != "" {
		cfg.Server.Host = serveOpts.host
	}
	if serveOpts.port != 0 {
		cfg.Server.Port = serveOpts.port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	palettes := theme.NewLoader(logger)
	palettes.LoadAll()

	deps := server.Deps{
		Store:    prefStore,
		Palettes: palettes,
		Logger:   logger,
	}
	if geoEnabled() {
		deps.Geo = newGeoClient()
	}

	runtime, err := server.New(cfg, deps)
	if err != nil {
		return err
	}
	return runtime.Run(cmd.Context())
}
