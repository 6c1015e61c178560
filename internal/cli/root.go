// Package cli wires the basketrules commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/basketrules/internal/config"
)

// logFlags are the global logging overrides.
type logFlags struct {
	level  string
	format string
}

// Execute builds the command tree and runs it with ctx.
func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	lf := &logFlags{}

	rootCmd := &cobra.Command{
		Use:   "basketrules",
		Short: "Mine association rules from market basket transactions",
		Long: `basketrules reads a transaction log (one basket per row), mines frequent
itemsets with Apriori, derives association rules and ranks them by support,
confidence, lift, leverage, conviction and Zhang's metric.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return lf.setup(cmd.ErrOrStderr(), config.LogConfig{})
		},
	}

	rootCmd.PersistentFlags().StringVar(&lf.level, "log-level", "", "log level: debug | info | warn | error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&lf.format, "log-format", "", "log format: json | text (overrides config)")

	rootCmd.AddCommand(newAnalyzeCommand(lf))
	rootCmd.AddCommand(newZhangCommand())
	rootCmd.AddCommand(newWatchCommand(lf))
	return rootCmd
}

// setup installs the default slog logger. Flag values win over cfg;
// cfg wins over the built-in defaults.
func (lf *logFlags) setup(w io.Writer, cfg config.LogConfig) error {
	level, format := config.DefaultLogLevel, config.DefaultLogFormat
	if cfg.Level != "" {
		level = cfg.Level
	}
	if cfg.Format != "" {
		format = cfg.Format
	}
	if lf.level != "" {
		level = lf.level
	}
	if lf.format != "" {
		format = lf.format
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("log format %q: want json or text", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// parseConfig returns the config at path without validating it, or the
// defaults when path is empty.
func parseConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Parse(path)
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
