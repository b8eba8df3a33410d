package enrichcmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/firstedition/internal/config"
	"github.com/lehigh-university-libraries/firstedition/internal/summary"
	"github.com/spf13/cobra"
)

// SetupLogging installs the default slog logger. format is "text", "json" or
// "auto"; auto picks text on a terminal and JSON otherwise.
func SetupLogging(w io.Writer, verbose bool, format string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if format == "auto" || format == "" {
		format = "json"
		if summary.IsTerminal(w) {
			format = "text"
		}
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unsupported log format: %s (supported: auto, text, json)", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// withRunID attaches runID to the default logger until the returned func is
// called.
func withRunID(runID string) (restore func()) {
	prev := slog.Default()
	slog.SetDefault(prev.With("run_id", runID))
	return func() { slog.SetDefault(prev) }
}

// loadConfig reads the config file named by the root --config flag, if any.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := ""
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	return config.Load(path)
}
