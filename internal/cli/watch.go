package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/basketrules/internal/config"
	"github.com/obsidianstack/basketrules/internal/pipeline"
)

func newWatchCommand(lf *logFlags) *cobra.Command {
	var configPath string
	o := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever the config or input file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, lf, configPath, o)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
	o.register(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, lf *logFlags, configPath string, o *analyzeFlags) error {
	cfg, err := resolveConfig(cmd, lf, configPath, o)
	if err != nil {
		return err
	}

	runner := pipeline.New()
	analyse := func(cfg *config.Config) {
		run, err := runner.Run(cmd.Context(), cfg, cmd.OutOrStdout())
		if err != nil {
			slog.Error("watch: run failed", "err", err)
			return
		}
		slog.Info("watch: run finished", "run_id", run.ID, "rules", len(run.Rules))
	}

	analyse(cfg)
	err = config.Watch(cmd.Context(), configPath, o.apply, analyse)
	slog.Info("basketrules watch shutting down")
	return err
}
