package rules

import (
	"math"
	"sort"

	"github.com/obsidianstack/basketrules/pkg/types"
)

// Summary holds descriptive statistics for one numeric column.
// NaN values are excluded; Std is the sample standard deviation.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	P25   float64
	P50   float64
	P75   float64
	Max   float64
}

// Column pairs a column name with its summary.
type Column struct {
	Name    string
	Summary Summary
}

// LengthGroup is the support summary of all itemsets of one length.
type LengthGroup struct {
	Length  int
	Summary Summary
}

// Describe summarises values. Percentiles use linear interpolation between
// the closest ranks.
func Describe(values []float64) Summary {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	nan := math.NaN()
	s := Summary{Count: len(xs), Mean: nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan}
	if len(xs) == 0 {
		return s
	}
	sort.Float64s(xs)

	var sum float64
	for _, v := range xs {
		sum += v
	}
	s.Mean = sum / float64(len(xs))
	if len(xs) > 1 {
		var sq float64
		for _, v := range xs {
			d := v - s.Mean
			sq += d * d
		}
		s.Std = math.Sqrt(sq / float64(len(xs)-1))
	}
	s.Min = xs[0]
	s.Max = xs[len(xs)-1]
	s.P25 = quantile(xs, 0.25)
	s.P50 = quantile(xs, 0.50)
	s.P75 = quantile(xs, 0.75)
	return s
}

// quantile expects sorted, non-empty xs.
func quantile(xs []float64, q float64) float64 {
	pos := q * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return xs[lo]
	}
	frac := pos - float64(lo)
	return xs[lo] + (xs[hi]-xs[lo])*frac
}

// DescribeRules summarises every metric column of rules, in Metrics order.
func DescribeRules(rules []types.Rule) []Column {
	out := make([]Column, 0, len(Metrics))
	vals := make([]float64, len(rules))
	for _, m := range Metrics {
		for i, r := range rules {
			vals[i] = mustValue(r, m)
		}
		out = append(out, Column{Name: m, Summary: Describe(vals)})
	}
	return out
}

// DescribeItemsetsByLength groups itemsets by length and summarises the
// support of each group, shortest first.
func DescribeItemsetsByLength(itemsets []types.Itemset) []LengthGroup {
	groups := make(map[int][]float64)
	for _, s := range itemsets {
		groups[s.Len()] = append(groups[s.Len()], s.Support)
	}
	lengths := make([]int, 0, len(groups))
	for l := range groups {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	out := make([]LengthGroup, 0, len(lengths))
	for _, l := range lengths {
		out = append(out, LengthGroup{Length: l, Summary: Describe(groups[l])})
	}
	return out
}

// FilterItemsets returns the itemsets with at least minLen items.
func FilterItemsets(itemsets []types.Itemset, minLen int) []types.Itemset {
	var out []types.Itemset
	for _, s := range itemsets {
		if s.Len() >= minLen {
			out = append(out, s)
		}
	}
	return out
}

// SortItemsetsBySupport returns a copy of itemsets ordered by descending
// support. Ties keep their mining order.
func SortItemsetsBySupport(itemsets []types.Itemset) []types.Itemset {
	out := make([]types.Itemset, len(itemsets))
	copy(out, itemsets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Support > out[j].Support })
	return out
}
