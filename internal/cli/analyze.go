package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/basketrules/internal/config"
	"github.com/obsidianstack/basketrules/internal/pipeline"
)

// analyzeFlags holds flag values that override the config file.
type analyzeFlags struct {
	input        string
	minSupport   float64
	maxLen       int
	metric       string
	minThreshold float64
	filters      []string
	strict       bool
	quiet        bool
	head         int
	csv          string
	xlsx         string
	prom         string
	sqlite       string

	// changed reports whether the user set the named flag.
	changed func(name string) bool
}

func newAnalyzeCommand(lf *logFlags) *cobra.Command {
	var configPath string
	o := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full basket analysis and print the report",
		Example: `  basketrules analyze --input market_items.csv
  basketrules analyze --config basketrules.yaml --xlsx out/rules.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, lf, configPath, o)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	o.register(cmd)
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "do not print the report")
	return cmd
}

// register adds the flags shared by analyze and watch.
func (o *analyzeFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "transaction file (csv or xlsx)")
	f.Float64Var(&o.minSupport, "min-support", config.DefaultMinSupport, "minimum itemset support")
	f.IntVar(&o.maxLen, "max-len", 0, "maximum itemset length (0 = unbounded)")
	f.StringVar(&o.metric, "metric", config.DefaultMetric, "rule metric compared against --min-threshold")
	f.Float64Var(&o.minThreshold, "min-threshold", config.DefaultMinThreshold, "minimum value of --metric")
	f.StringArrayVar(&o.filters, "filter", nil, `extra rule filter, e.g. "lift > 1" (repeatable)`)
	f.BoolVar(&o.strict, "strict", false, "fail on rules with a zero Zhang denominator instead of reporting NaN")
	f.IntVar(&o.head, "head", config.DefaultHead, "rows shown in previews and rankings")
	f.StringVar(&o.csv, "csv", "", "write the rule table to this CSV file")
	f.StringVar(&o.xlsx, "xlsx", "", "write itemsets and rules to this XLSX workbook")
	f.StringVar(&o.prom, "prom", "", "write rule metrics to this Prometheus textfile")
	f.StringVar(&o.sqlite, "sqlite", "", "append the run to this SQLite database")
	o.changed = f.Changed
}

// apply copies every flag the user set onto cfg.
func (o *analyzeFlags) apply(cfg *config.Config) {
	changed := o.changed
	if changed("input") {
		cfg.Input.Path = o.input
	}
	if changed("min-support") {
		cfg.Mining.MinSupport = o.minSupport
	}
	if changed("max-len") {
		cfg.Mining.MaxLen = o.maxLen
	}
	if changed("metric") {
		cfg.Rules.Metric = o.metric
	}
	if changed("min-threshold") {
		cfg.Rules.MinThreshold = o.minThreshold
	}
	if changed("filter") {
		cfg.Rules.Filters = append(cfg.Rules.Filters, o.filters...)
	}
	if changed("strict") && o.strict {
		cfg.Zhang.OnDegenerate = "reject"
	}
	if changed("quiet") {
		cfg.Report.Quiet = o.quiet
	}
	if changed("head") {
		cfg.Report.Head = o.head
	}
	if changed("csv") {
		cfg.Export.CSV = o.csv
	}
	if changed("xlsx") {
		cfg.Export.XLSX = o.xlsx
	}
	if changed("prom") {
		cfg.Export.Prometheus = o.prom
	}
	if changed("sqlite") {
		cfg.Export.SQLite = o.sqlite
	}
}

// resolveConfig parses the config file (if any), applies flag overrides,
// validates once, and installs the configured logger.
func resolveConfig(cmd *cobra.Command, lf *logFlags, path string, o *analyzeFlags) (*config.Config, error) {
	cfg, err := parseConfig(path)
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := lf.setup(cmd.ErrOrStderr(), cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, cfg *config.Config) error {
	slog.Info("basketrules analyze starting",
		"input", cfg.Input.Path,
		"min_support", cfg.Mining.MinSupport,
		"metric", cfg.Rules.Metric,
		"min_threshold", cfg.Rules.MinThreshold,
	)

	run, err := pipeline.New().Run(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	slog.Info("basketrules analyze finished", "run_id", run.ID, "rules", len(run.Rules))
	return nil
}
