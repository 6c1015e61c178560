package types

import (
	"strings"
	"time"
)

// ItemSeparator joins items when an itemset is rendered as a single string
// (CSV cells, Prometheus labels, SQLite columns). Labels containing it do
// not survive SplitItems.
const ItemSeparator = "|"

// Itemset is a frequent itemset together with its support.
type Itemset struct {
	// Items is sorted in encoder column order.
	Items   []string
	Support float64
}

// Len returns the number of items in the set.
func (s Itemset) Len() int { return len(s.Items) }

// Key returns the canonical string form of the itemset.
func (s Itemset) Key() string { return JoinItems(s.Items) }

// Rule is one association rule "Antecedents => Consequents" with its
// statistics. All supports are fractions of the transaction count.
type Rule struct {
	Antecedents []string
	Consequents []string

	Support           float64
	AntecedentSupport float64
	ConsequentSupport float64

	Confidence float64
	Lift       float64
	Leverage   float64
	Conviction float64 // +Inf when Confidence == 1

	// Zhang is NaN when the row is degenerate and the NaN policy is active.
	Zhang float64
}

// String renders the rule as "a|b => c".
func (r Rule) String() string {
	return JoinItems(r.Antecedents) + " => " + JoinItems(r.Consequents)
}

// Run is the output of one analysis run.
type Run struct {
	ID        string
	StartedAt time.Time
	Source    string

	Transactions int
	Items        int

	Itemsets []Itemset
	Rules    []Rule
}

// JoinItems joins items with ItemSeparator.
func JoinItems(items []string) string { return strings.Join(items, ItemSeparator) }

// SplitItems is the inverse of JoinItems. An empty string yields nil.
func SplitItems(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ItemSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
