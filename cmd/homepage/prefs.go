package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/homepage/internal/config"
	"github.com/jmylchreest/homepage/internal/locale"
	"github.com/jmylchreest/homepage/internal/store"
	"github.com/jmylchreest/homepage/internal/theme"
)

var errNoStateFile = errors.New("preferences need a state file; drop --ephemeral")

var prefsOpts struct {
	bucket string
	all    bool
	format string
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Inspect and edit remembered preferences",
	Long: `Inspect and edit the remembered theme and language.

The local page uses the "local" bucket. SSH visitors get one bucket each,
named after their key fingerprint or address.`,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show remembered preferences",
	Long: `Show remembered preferences.

Examples:
  homepage prefs show
  homepage prefs show --all --format json
  homepage prefs show --bucket "ip:203.0.113.7" --format yaml`,
	Args: cobra.NoArgs,
	RunE: runPrefsShow,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <theme|language> <value>",
	Short: "Remember a preference",
	Long: `Remember a preference, as if it had been toggled on the page.

Themes are "light" or "dark". Languages are either configured language code,
or "primary" / "alternate".

Examples:
  homepage prefs set theme dark
  homepage prefs set language hu`,
	Args: cobra.ExactArgs(2),
	RunE: runPrefsSet,
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset [theme|language]",
	Short: "Forget preferences",
	Long: `Forget one preference, or every preference of the bucket.

A forgotten theme follows the desktop color scheme again. A forgotten
language is decided by geolocation on the next load.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrefsReset,
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd, prefsResetCmd)

	prefsCmd.PersistentFlags().StringVar(&prefsOpts.bucket, "bucket", store.LocalBucket,
		"Preference bucket")
	prefsShowCmd.Flags().BoolVar(&prefsOpts.all, "all", false,
		"Show every bucket")
	prefsShowCmd.Flags().StringVarP(&prefsOpts.format, "format", "f", formatText,
		"Output format: text, json, yaml")
}

// prefEntry is one preference as printed.
type prefEntry struct {
	Key       string    `json:"key" yaml:"key"`
	Value     string    `json:"value" yaml:"value"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// prefBucket is one bucket as printed.
type prefBucket struct {
	Bucket  string      `json:"bucket" yaml:"bucket"`
	Entries []prefEntry `json:"entries" yaml:"entries"`
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	if prefStore == nil {
		return errNoStateFile
	}

	names := []string{prefsOpts.bucket}
	if prefsOpts.all {
		names = prefStore.Buckets()
	}

	buckets := make([]prefBucket, 0, len(names))
	for _, name := range names {
		buckets = append(buckets, collectBucket(name, prefStore.Entries(name)))
	}
	return formatPrefs(os.Stdout, prefsOpts.format, buckets, time.Now())
}

func collectBucket(name string, entries map[string]store.Entry) prefBucket {
	b := prefBucket{Bucket: name, Entries: make([]prefEntry, 0, len(entries))}
	for key, e := range entries {
		b.Entries = append(b.Entries, prefEntry{
			Key:       key,
			Value:     e.Value,
			Source:    e.Source,
			UpdatedAt: time.Unix(e.UpdatedAt, 0).UTC(),
		})
	}
	sort.Slice(b.Entries, func(i, j int) bool { return b.Entries[i].Key < b.Entries[j].Key })
	return b
}

func formatPrefs(w io.Writer, format string, buckets []prefBucket, now time.Time) error {
	if format != formatText {
		return writeStructured(w, format, buckets)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, b := range buckets {
		if i > 0 {
			_, _ = fmt.Fprintln(tw)
		}
		_, _ = fmt.Fprintf(tw, "[%s]\n", b.Bucket)
		if len(b.Entries) == 0 {
			_, _ = fmt.Fprintln(tw, "  (no preferences)")
			continue
		}
		for _, e := range b.Entries {
			source := e.Source
			if source == "" {
				source = "-"
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				e.Key, e.Value, source, humanize.RelTime(e.UpdatedAt, now, "ago", "from now"))
		}
	}
	return tw.Flush()
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	if prefStore == nil {
		return errNoStateFile
	}

	key, value, err := normalizePref(cfg, args[0], args[1])
	if err != nil {
		return err
	}

	if err := prefStore.Bucket(prefsOpts.bucket).WithSource("cli").Set(key, value); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	fmt.Printf("%s = %s [%s]\n", key, value, prefsOpts.bucket)
	return nil
}

// normalizePref validates a preference and returns it in its stored form.
func normalizePref(cfg *config.Config, key, value string) (string, string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case store.KeyTheme:
		mode, err := theme.ParseMode(value)
		if err != nil {
			return "", "", err
		}
		return store.KeyTheme, string(mode), nil

	case store.KeyLanguage:
		profile := locale.Profile{
			PrimaryCode:   cfg.Profile.PrimaryLanguage,
			AlternateCode: cfg.Profile.AlternateLanguage,
		}
		lang, ok := profile.Parse(value)
		if !ok {
			return "", "", fmt.Errorf("unknown language %q (valid: %s, %s)",
				value, profile.PrimaryCode, profile.AlternateCode)
		}
		return store.KeyLanguage, profile.Code(lang), nil
	}
	return "", "", fmt.Errorf("unknown preference %q (valid: %s, %s)", key, store.KeyTheme, store.KeyLanguage)
}

func runPrefsReset(cmd *cobra.Command, args []string) error {
	if prefStore == nil {
		return errNoStateFile
	}

	if len(args) == 0 {
		if err := prefStore.ResetBucket(prefsOpts.bucket); err != nil {
			return fmt.Errorf("failed to reset preferences: %w", err)
		}
		fmt.Printf("reset all preferences [%s]\n", prefsOpts.bucket)
		return nil
	}

	key := strings.ToLower(args[0])
	if key != store.KeyTheme && key != store.KeyLanguage {
		return fmt.Errorf("unknown preference %q (valid: %s, %s)", key, store.KeyTheme, store.KeyLanguage)
	}
	if err := prefStore.Bucket(prefsOpts.bucket).Delete(key); err != nil {
		return fmt.Errorf("failed to reset preference: %w", err)
	}
	fmt.Printf("reset %s [%s]\n", key, prefsOpts.bucket)
	return nil
}
