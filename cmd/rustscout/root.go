package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rustscout/pkg/config"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "rustscout",
	Short: "rustscout - concurrent code search and in-place replace engine",
	Long: `rustscout locates every occurrence of one or more patterns across a
filesystem hierarchy and, on request, rewrites those occurrences atomically
with support for preview, backup, and undo.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to .rustscout.yaml (default: local .rustscout.yaml, then user config dir)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(listUndoCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging configures the process-wide slog default handler from
// -v/-q and the RUSTSCOUT_LOG environment variable, the same
// level->handler->SetDefault shape storbeck-augustus/pkg/logging uses.
// The core packages never log directly; they only call the OnWarning
// callbacks, which this CLI wires to print a "warning:" line on stderr.
func setupLogging() {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	if env := os.Getenv("RUSTSCOUT_LOG"); env != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(env)); err == nil {
			level = l
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves the configuration document once per command
// invocation, warning (never failing the command) when a config error
// would otherwise prevent it from running with sane defaults.
func loadConfig() *config.File {
	f, path, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return &config.File{}
	}
	if path != "" {
		slog.Debug("loaded configuration", "path", path)
	}
	return f
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
