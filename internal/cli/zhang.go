package cli

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/basketrules/internal/compute"
	"github.com/obsidianstack/basketrules/internal/report"
	"github.com/obsidianstack/basketrules/internal/ruletable"
)

type zhangFlags struct {
	input  string
	output string
	strict bool
	table  bool
}

func newZhangCommand() *cobra.Command {
	o := &zhangFlags{}

	cmd := &cobra.Command{
		Use:   "zhang",
		Short: "Add a zhang column to an existing rule table",
		Long: `zhang reads a CSV rule table with support, antecedent support and
consequent support columns and writes it back with Zhang's metric added,
keeping row order. Rows whose denominator is zero get NaN, or fail the
command with --strict.`,
		Example: `  basketrules zhang --input rules.csv --output rules_zhang.csv
  cat rules.csv | basketrules zhang --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZhang(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "-", `rule table CSV ("-" for stdin)`)
	f.StringVarP(&o.output, "output", "o", "-", `output CSV ("-" for stdout)`)
	f.BoolVar(&o.strict, "strict", false, "fail on a zero denominator instead of writing NaN")
	f.BoolVar(&o.table, "table", false, "print an aligned table instead of CSV")
	return cmd
}

func runZhang(cmd *cobra.Command, o *zhangFlags) error {
	var in io.Reader = cmd.InOrStdin()
	if o.input != "-" {
		f, err := os.Open(o.input)
		if err != nil {
			return fmt.Errorf("zhang: %w", err)
		}
		defer f.Close()
		in = f
	}

	rs, err := ruletable.Read(in)
	if err != nil {
		return fmt.Errorf("zhang: %w", err)
	}

	policy := compute.PolicyNaN
	if o.strict {
		policy = compute.PolicyReject
	}
	if err := compute.AnnotateZhang(rs, policy); err != nil {
		return fmt.Errorf("zhang: %w", err)
	}

	var degenerate int
	for _, r := range rs {
		if math.IsNaN(r.Zhang) {
			degenerate++
		}
	}
	slog.Info("zhang: annotated rule table", "rules", len(rs), "degenerate", degenerate)

	var out io.WriteCloser
	if o.output == "-" {
		out = nopCloser{cmd.OutOrStdout()}
	} else if out, err = openOutput(o.output); err != nil {
		return fmt.Errorf("zhang: %w", err)
	}

	if o.table {
		p := report.New(out)
		p.Rules("rules", rs)
		err = p.Err()
	} else {
		err = ruletable.Write(out, rs)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("zhang: %w", err)
	}
	return nil
}
