package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/V4T54L/logmon/internal/pkg/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "logmon",
	Short: "Watch a live AI pipeline log feed",
	Long: `logmon attaches to a Server-Sent Events log feed, keeps a bounded window of
recent events in memory and tracks the status of every pipeline session.

Configuration comes from the environment (FEED_URL, MAX_LOGS, ...) or a .env
file; flags override it.

Quick Start:
  logmon tail --feed http://localhost:3001/api/logs/stream
  logmon tail --session session-1234 --level ERROR
  logmon serve                       # status API, SSE relay and /metrics`,
	Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage: true,
}

// flagEnv maps persistent flags onto the environment variables they override.
var flagEnv = map[string]string{
	"feed":            "FEED_URL",
	"log-level":       "LOG_LEVEL",
	"max-logs":        "MAX_LOGS",
	"reconnect-delay": "RECONNECT_DELAY",
	"session":         "SESSION_SCOPE",
	"export-dir":      "EXPORT_DIR",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("feed", "", "Feed URL (overrides FEED_URL)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flags.Int("max-logs", 0, "Number of events kept in memory (overrides MAX_LOGS)")
	flags.Duration("reconnect-delay", 0, "Delay between reconnect attempts (overrides RECONNECT_DELAY)")
	flags.String("session", "", "Only stream events for this session (overrides SESSION_SCOPE)")
	flags.String("export-dir", "", "Directory for export files (overrides EXPORT_DIR)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(serveCmd, tailCmd)
}

// loadConfig applies explicitly set flags on top of the environment and
// loads the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := applyFlagEnv(cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func applyFlagEnv(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		name, ok := flagEnv[f.Name]
		if !ok || err != nil {
			return
		}
		err = os.Setenv(name, f.Value.String())
	})
	return err
}
