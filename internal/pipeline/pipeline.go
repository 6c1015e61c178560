// Package pipeline runs one market basket analysis end to end: load
// baskets, encode, mine frequent itemsets, derive and annotate rules, print
// the report and run the configured exporters.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/obsidianstack/basketrules/internal/apriori"
	"github.com/obsidianstack/basketrules/internal/config"
	"github.com/obsidianstack/basketrules/internal/export"
	"github.com/obsidianstack/basketrules/internal/report"
	"github.com/obsidianstack/basketrules/internal/rules"
	"github.com/obsidianstack/basketrules/internal/transactions"
	"github.com/obsidianstack/basketrules/pkg/types"
)

// Runner executes analysis runs. The zero value is not usable; use New.
type Runner struct {
	now       func() time.Time // injectable for deterministic tests
	newID     func() string
	exporters func(config.ExportConfig) []export.Exporter
}

// New returns a Runner using the wall clock, random run IDs and the
// exporters named in the config.
func New() *Runner {
	return &Runner{
		now:       time.Now,
		newID:     uuid.NewString,
		exporters: export.FromConfig,
	}
}

// Run performs one analysis with cfg and writes the report to out.
func (r *Runner) Run(ctx context.Context, cfg *config.Config, out io.Writer) (*types.Run, error) {
	run := &types.Run{
		ID:        r.newID(),
		StartedAt: r.now(),
		Source:    cfg.Input.Path,
	}
	log := slog.With("run_id", run.ID)

	baskets, err := transactions.Load(transactions.Source{
		Path:      cfg.Input.Path,
		Format:    cfg.Input.Format,
		Delimiter: cfg.Input.DelimiterRune(),
		Sheet:     cfg.Input.Sheet,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: load: %w", err)
	}

	matrix, err := new(transactions.Encoder).FitTransform(baskets)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encode: %w", err)
	}
	run.Transactions = matrix.NumTransactions()
	run.Items = len(matrix.Columns)
	log.Info("pipeline: transactions encoded",
		"source", run.Source,
		"transactions", run.Transactions,
		"items", run.Items,
	)

	run.Itemsets, err = apriori.Mine(ctx, matrix, apriori.Options{
		MinSupport: cfg.Mining.MinSupport,
		MaxLen:     cfg.Mining.MaxLen,
		Workers:    cfg.Mining.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: mine: %w", err)
	}
	log.Info("pipeline: frequent itemsets mined",
		"itemsets", len(run.Itemsets),
		"min_support", cfg.Mining.MinSupport,
	)

	conds, err := rules.ParseConditions(cfg.Rules.Filters)
	if err != nil {
		return nil, fmt.Errorf("pipeline: filters: %w", err)
	}
	run.Rules, err = rules.Generate(run.Itemsets, rules.Options{
		Metric:       cfg.Rules.Metric,
		MinThreshold: cfg.Rules.MinThreshold,
		Conditions:   conds,
		Policy:       cfg.Zhang.Policy(),
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: rules: %w", err)
	}
	log.Info("pipeline: rules derived",
		"rules", len(run.Rules),
		"metric", cfg.Rules.Metric,
		"min_threshold", cfg.Rules.MinThreshold,
	)

	if !cfg.Report.Quiet {
		err := report.Write(out, report.Input{
			Baskets:  baskets,
			Matrix:   matrix,
			Itemsets: run.Itemsets,
			Rules:    run.Rules,
		}, report.Options{
			Head:          cfg.Report.Head,
			MinItemsetLen: cfg.Report.MinItemsetLen,
			SortBy:        cfg.Report.SortBy,
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	for _, ex := range r.exporters(cfg.Export) {
		if err := ex.Export(ctx, run); err != nil {
			return nil, fmt.Errorf("pipeline: export %s: %w", ex.Name(), err)
		}
		log.Info("pipeline: exported", "exporter", ex.Name())
	}

	log.Info("pipeline: run complete", "elapsed", r.now().Sub(run.StartedAt))
	return run, nil
}
