package rules

import (
	"fmt"
	"math"
	"sort"

	"github.com/obsidianstack/basketrules/pkg/types"
)

// SortBy returns a copy of rules ordered by metric. The sort is stable and
// NaN values go last in both directions.
func SortBy(rules []types.Rule, metric string, ascending bool) ([]types.Rule, error) {
	if !ValidMetric(metric) {
		return nil, fmt.Errorf("rules: unknown metric %q", metric)
	}
	out := make([]types.Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := mustValue(out[i], metric), mustValue(out[j], metric)
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case ascending:
			return a < b
		default:
			return a > b
		}
	})
	return out, nil
}

// Head returns at most n rules from the front of rules.
func Head(rules []types.Rule, n int) []types.Rule {
	if n < 0 || n > len(rules) {
		n = len(rules)
	}
	return rules[:n]
}
