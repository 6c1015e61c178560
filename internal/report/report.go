package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/obsidianstack/basketrules/internal/rules"
	"github.com/obsidianstack/basketrules/internal/transactions"
	"github.com/obsidianstack/basketrules/pkg/types"
)

// maxMatrixCols caps the columns shown in matrix previews.
const maxMatrixCols = 8

// Options controls which rows and rankings are printed.
type Options struct {
	Head          int
	MinItemsetLen int
	SortBy        []string
}

// Input is everything one analysis run produced.
type Input struct {
	Baskets  [][]string
	Matrix   *transactions.Matrix
	Itemsets []types.Itemset
	Rules    []types.Rule // Zhang already annotated
}

// Printer writes sections to an io.Writer, keeping the first error.
type Printer struct {
	w   io.Writer
	err error
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer { return &Printer{w: w} }

// Err returns the first write error, if any.
func (p *Printer) Err() error { return p.err }

// Write prints the complete analysis.
func Write(w io.Writer, in Input, opts Options) error {
	p := New(w)
	head := opts.Head

	p.Baskets(fmt.Sprintf("items[0:%d]", head), transactions.Preview(in.Baskets, head))
	if in.Matrix != nil {
		p.Matrix("transactions", in.Matrix, head)
		p.Info("itemsets.info()", in.Matrix)
	}

	p.Itemsets("frequent_itemsets", in.Itemsets)
	p.Itemsets("frequent_itemsets sorted by support", rules.SortItemsetsBySupport(in.Itemsets))
	p.Itemsets(fmt.Sprintf("frequent_itemsets with length >= %d", opts.MinItemsetLen),
		rules.FilterItemsets(in.Itemsets, opts.MinItemsetLen))
	p.LengthGroups("support by itemset length", rules.DescribeItemsetsByLength(in.Itemsets))

	p.Rules("rules", in.Rules)
	p.Describe("rules described", rules.DescribeRules(in.Rules))
	for _, m := range opts.SortBy {
		p.Ranking(in.Rules, m, false, head)
	}
	p.Ranking(in.Rules, rules.MetricZhang, false, head)
	p.Ranking(in.Rules, rules.MetricZhang, true, head)

	return p.Err()
}

// Ranking prints the first n rules ordered by metric.
func (p *Printer) Ranking(rs []types.Rule, metric string, ascending bool, n int) {
	sorted, err := rules.SortBy(rs, metric, ascending)
	if err != nil {
		p.fail(err)
		return
	}
	dir := "descending"
	if ascending {
		dir = "ascending"
	}
	p.Rules(fmt.Sprintf("rules by %s %s, head %d", metric, dir, n), rules.Head(sorted, n))
}

// Baskets prints raw baskets.
func (p *Printer) Baskets(title string, baskets [][]string) {
	p.section(title, func(tw *tabwriter.Writer) {
		for i, b := range baskets {
			fmt.Fprintf(tw, "%d\t[%s]\n", i, strings.Join(b, ", "))
		}
	})
}

// Matrix prints the shape and the first n rows of m.
func (p *Printer) Matrix(title string, m *transactions.Matrix, n int) {
	p.section(title, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "shape\t(%d, %d)\n", m.NumTransactions(), len(m.Columns))
		cols := m.Columns
		more := 0
		if len(cols) > maxMatrixCols {
			more = len(cols) - maxMatrixCols
			cols = cols[:maxMatrixCols]
		}
		fmt.Fprintf(tw, "\t%s", strings.Join(cols, "\t"))
		if more > 0 {
			fmt.Fprintf(tw, "\t... %d more", more)
		}
		fmt.Fprintln(tw)
		for i := 0; i < n && i < len(m.Rows); i++ {
			fmt.Fprintf(tw, "%d", i)
			for j := range cols {
				fmt.Fprintf(tw, "\t%t", m.Rows[i][j])
			}
			fmt.Fprintln(tw)
		}
	})
}

// Info prints per-column counts of m.
func (p *Printer) Info(title string, m *transactions.Matrix) {
	info := m.Info()
	p.section(title, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "transactions\t%d\n", info.Transactions)
		fmt.Fprintf(tw, "items\t%d\n", info.Items)
		fmt.Fprintf(tw, "density\t%s\n", formatFloat(info.Density))
		fmt.Fprintln(tw, "#\titem\tcount")
		for j, c := range m.Columns {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", j, c, info.Counts[j])
		}
	})
}

// Itemsets prints itemsets with their support.
func (p *Printer) Itemsets(title string, sets []types.Itemset) {
	p.section(title, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "\tsupport\titemsets")
		for i, s := range sets {
			fmt.Fprintf(tw, "%d\t%s\t(%s)\n", i, formatFloat(s.Support), strings.Join(s.Items, ", "))
		}
	})
}

// LengthGroups prints support summaries grouped by itemset length.
func (p *Printer) LengthGroups(title string, groups []rules.LengthGroup) {
	p.section(title, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "length\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
		for _, g := range groups {
			s := g.Summary
			fmt.Fprintf(tw, "%d\t%d\t%s\n", g.Length, s.Count, strings.Join(summaryCells(s), "\t"))
		}
	})
}

// Rules prints a rule table.
func (p *Printer) Rules(title string, rs []types.Rule) {
	p.section(title, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "\tantecedents\tconsequents\tantecedent support\tconsequent support\tsupport\tconfidence\tlift\tleverage\tconviction\tzhang")
		for i, r := range rs {
			fmt.Fprintf(tw, "%d\t(%s)\t(%s)\t%s\n", i,
				strings.Join(r.Antecedents, ", "),
				strings.Join(r.Consequents, ", "),
				strings.Join([]string{
					formatFloat(r.AntecedentSupport),
					formatFloat(r.ConsequentSupport),
					formatFloat(r.Support),
					formatFloat(r.Confidence),
					formatFloat(r.Lift),
					formatFloat(r.Leverage),
					formatFloat(r.Conviction),
					formatFloat(r.Zhang),
				}, "\t"))
		}
	})
}

// Describe prints column summaries with statistics as rows.
func (p *Printer) Describe(title string, cols []rules.Column) {
	p.section(title, func(tw *tabwriter.Writer) {
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
		}
		fmt.Fprintf(tw, "\t%s\n", strings.Join(names, "\t"))

		fmt.Fprint(tw, "count")
		for _, c := range cols {
			fmt.Fprintf(tw, "\t%d", c.Summary.Count)
		}
		fmt.Fprintln(tw)

		for k, stat := range []string{"mean", "std", "min", "25%", "50%", "75%", "max"} {
			fmt.Fprint(tw, stat)
			for _, c := range cols {
				fmt.Fprintf(tw, "\t%s", summaryCells(c.Summary)[k])
			}
			fmt.Fprintln(tw)
		}
	})
}

func summaryCells(s rules.Summary) []string {
	return []string{
		formatFloat(s.Mean),
		formatFloat(s.Std),
		formatFloat(s.Min),
		formatFloat(s.P25),
		formatFloat(s.P50),
		formatFloat(s.P75),
		formatFloat(s.Max),
	}
}

func (p *Printer) section(title string, body func(tw *tabwriter.Writer)) {
	if p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.w, "### %s\n", title); err != nil {
		p.fail(err)
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	body(tw)
	if err := tw.Flush(); err != nil {
		p.fail(err)
		return
	}
	if _, err := fmt.Fprint(p.w, "\n\n"); err != nil {
		p.fail(err)
	}
}

func (p *Printer) fail(err error) {
	if p.err == nil {
		p.err = fmt.Errorf("report: %w", err)
	}
}

// formatFloat prints six decimals, "NaN" and "inf" like a data frame does.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return fmt.Sprintf("%.6f", v)
	}
}
