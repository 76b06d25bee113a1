package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/homepage/internal/config"
	"github.com/jmylchreest/homepage/internal/geo"
)

var locateOpts struct {
	format string
}

var locateCmd = &cobra.Command{
	Use:   "locate [ip]",
	Short: "Look up a country the way the page does",
	Long: `Perform one geolocation lookup and print the result, along with the
language a visitor from that country would see first.

Without an address the caller's own public address is used.

Examples:
  homepage locate
  homepage locate 203.0.113.7 --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)

	locateCmd.Flags().StringVarP(&locateOpts.format, "format", "f", formatText,
		"Output format: text, json, yaml")
}

// locateResult is a lookup as printed.
type locateResult struct {
	geo.Location `yaml:",inline"`
	Language     string `json:"language" yaml:"language"`
}

func runLocate(cmd *cobra.Command, args []string) error {
	if !geoEnabled() {
		return fmt.Errorf("geolocation is disabled")
	}

	ip := ""
	if len(args) == 1 {
		ip = args[0]
	}

	timeout := cfg.Locale.Timeout.Duration()
	if timeout <= 0 {
		timeout = geo.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	loc, err := newGeoClient().Lookup(ctx, ip)
	if err != nil {
		return err
	}

	return formatLocation(os.Stdout, locateOpts.format, cfg, loc)
}

// languageFor returns the code of the language a visitor from country sees.
func languageFor(cfg *config.Config, country string) string {
	if strings.EqualFold(country, cfg.Locale.TargetCountry) {
		return cfg.Profile.AlternateLanguage
	}
	return cfg.Profile.PrimaryLanguage
}

func formatLocation(w io.Writer, format string, cfg *config.Config, loc *geo.Location) error {
	result := locateResult{Location: *loc, Language: languageFor(cfg, loc.CountryCode)}
	if format != formatText {
		return writeStructured(w, format, result)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "IP:\t%s\n", loc.IP)
	_, _ = fmt.Fprintf(tw, "Country:\t%s\n", countryLabel(loc))
	if loc.City != "" || loc.Region != "" {
		_, _ = fmt.Fprintf(tw, "Place:\t%s\n", strings.Trim(loc.City+", "+loc.Region, ", "))
	}
	if loc.Timezone != "" {
		_, _ = fmt.Fprintf(tw, "Timezone:\t%s\n", loc.Timezone)
	}
	_, _ = fmt.Fprintf(tw, "Language:\t%s\n", result.Language)
	return tw.Flush()
}

func countryLabel(loc *geo.Location) string {
	if loc.CountryName == "" {
		return loc.CountryCode
	}
	return fmt.Sprintf("%s (%s)", loc.CountryName, loc.CountryCode)
}
