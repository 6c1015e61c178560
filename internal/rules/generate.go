package rules

import (
	"fmt"
	"log/slog"

	"github.com/obsidianstack/basketrules/internal/compute"
	"github.com/obsidianstack/basketrules/pkg/types"
)

// Default values for Options.
const (
	DefaultMetric       = MetricConfidence
	DefaultMinThreshold = 0.8
)

// Options controls rule generation.
type Options struct {
	// Metric selects the column compared against MinThreshold.
	Metric string

	// MinThreshold is the minimum value of Metric a rule must reach.
	MinThreshold float64

	// Conditions are extra filters every kept rule must satisfy.
	Conditions []Condition

	// Policy handles rules whose Zhang denominator is zero.
	Policy compute.Policy
}

// Generate derives association rules from frequent itemsets.
//
// For each itemset of length >= 2, every non-empty proper subset becomes an
// antecedent (largest antecedents first, in item order) and the remaining
// items the consequent. Antecedent and consequent supports are looked up in
// itemsets; Apriori's downward closure guarantees they are present.
func Generate(itemsets []types.Itemset, opts Options) ([]types.Rule, error) {
	if opts.Metric == "" {
		opts.Metric = DefaultMetric
	}
	if !ValidMetric(opts.Metric) {
		return nil, fmt.Errorf("rules: unknown metric %q", opts.Metric)
	}
	if opts.Policy == "" {
		opts.Policy = compute.PolicyNaN
	}

	support := make(map[string]float64, len(itemsets))
	for _, s := range itemsets {
		support[s.Key()] = s.Support
	}

	var (
		out        []types.Rule
		considered int
	)
	for _, set := range itemsets {
		if set.Len() < 2 {
			continue
		}
		for size := set.Len() - 1; size >= 1; size-- {
			for _, idx := range combinations(set.Len(), size) {
				ante, cons := split(set.Items, idx)
				a, ok := support[types.JoinItems(ante)]
				if !ok {
					return nil, fmt.Errorf("rules: antecedent %v of %v is not a frequent itemset", ante, set.Items)
				}
				c, ok := support[types.JoinItems(cons)]
				if !ok {
					return nil, fmt.Errorf("rules: consequent %v of %v is not a frequent itemset", cons, set.Items)
				}

				considered++
				r, err := build(ante, cons, set.Support, a, c, opts.Policy)
				if err != nil {
					return nil, err
				}
				if keep(r, opts) {
					out = append(out, r)
				}
			}
		}
	}

	slog.Debug("rules: generated",
		"considered", considered,
		"kept", len(out),
		"metric", opts.Metric,
		"min_threshold", opts.MinThreshold,
	)
	return out, nil
}

func build(ante, cons []string, s, a, c float64, policy compute.Policy) (types.Rule, error) {
	in := compute.Input{Support: s, AntecedentSupport: a, ConsequentSupport: c}
	st, err := compute.Stats(in, policy)
	if err != nil {
		return types.Rule{}, fmt.Errorf("rules: %v => %v: %w", ante, cons, err)
	}
	return types.Rule{
		Antecedents:       ante,
		Consequents:       cons,
		Support:           s,
		AntecedentSupport: a,
		ConsequentSupport: c,
		Confidence:        st.Confidence,
		Lift:              st.Lift,
		Leverage:          st.Leverage,
		Conviction:        st.Conviction,
		Zhang:             st.Zhang,
	}, nil
}

func keep(r types.Rule, opts Options) bool {
	if !(mustValue(r, opts.Metric) >= opts.MinThreshold) {
		return false
	}
	for _, c := range opts.Conditions {
		if !c.Match(r) {
			return false
		}
	}
	return true
}

// split partitions items into the elements at idx and the rest, both in
// item order.
func split(items []string, idx []int) (in, rest []string) {
	in = make([]string, 0, len(idx))
	rest = make([]string, 0, len(items)-len(idx))
	k := 0
	for i, it := range items {
		if k < len(idx) && idx[k] == i {
			in = append(in, it)
			k++
			continue
		}
		rest = append(rest, it)
	}
	return in, rest
}

// combinations returns all size-r index subsets of [0, n) in lexicographic
// order.
func combinations(n, r int) [][]int {
	var out [][]int
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	for {
		out = append(out, append([]int(nil), idx...))
		i := r - 1
		for i >= 0 && idx[i] == n-r+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < r; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
