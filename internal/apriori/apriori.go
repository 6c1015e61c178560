package apriori

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/basketrules/internal/transactions"
	"github.com/obsidianstack/basketrules/pkg/types"
)

// Options controls a mining run.
type Options struct {
	// MinSupport is the minimum fraction of transactions an itemset must
	// appear in. Must be in (0, 1].
	MinSupport float64

	// MaxLen caps the itemset length. 0 means unbounded.
	MaxLen int

	// Workers is the number of counting goroutines. 0 means GOMAXPROCS.
	Workers int
}

// Validate checks Options.
func (o Options) Validate() error {
	if !(o.MinSupport > 0 && o.MinSupport <= 1) {
		return fmt.Errorf("apriori: min_support %g must be in (0, 1]", o.MinSupport)
	}
	if o.MaxLen < 0 {
		return fmt.Errorf("apriori: max_len %d must not be negative", o.MaxLen)
	}
	if o.Workers < 0 {
		return fmt.Errorf("apriori: workers %d must not be negative", o.Workers)
	}
	return nil
}

// candidate is an itemset as sorted column indices.
type candidate []int

func (c candidate) key() string {
	var sb strings.Builder
	for i, v := range c {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// Mine returns every itemset whose support is at least opts.MinSupport,
// ordered by length and then by column order.
func Mine(ctx context.Context, m *transactions.Matrix, opts Options) ([]types.Itemset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := m.NumTransactions()
	if n == 0 || len(m.Columns) == 0 {
		return nil, nil
	}
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cols := make([]bitset, len(m.Columns))
	for j := range cols {
		cols[j] = newBitset(n)
	}
	for i, row := range m.Rows {
		for j, v := range row {
			if v {
				cols[j].set(i)
			}
		}
	}

	frequent := func(count int) bool { return float64(count)/float64(n) >= opts.MinSupport }

	var out []types.Itemset
	emit := func(level []candidate, counts []int) []candidate {
		var kept []candidate
		for i, c := range level {
			if !frequent(counts[i]) {
				continue
			}
			kept = append(kept, c)
			items := make([]string, len(c))
			for k, j := range c {
				items[k] = m.Columns[j]
			}
			out = append(out, types.Itemset{Items: items, Support: float64(counts[i]) / float64(n)})
		}
		return kept
	}

	level := make([]candidate, len(m.Columns))
	for j := range level {
		level[j] = candidate{j}
	}

	for k := 1; len(level) > 0; k++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("apriori: %w", err)
		}
		counts, err := countSupport(ctx, cols, level, n, workers)
		if err != nil {
			return nil, err
		}
		kept := emit(level, counts)
		slog.Debug("apriori: level mined", "k", k, "candidates", len(level), "frequent", len(kept))

		if opts.MaxLen > 0 && k >= opts.MaxLen {
			break
		}
		level = generate(kept)
	}
	return out, nil
}

// countSupport counts the transactions containing each candidate. The
// candidate list is split into contiguous chunks, one per worker.
func countSupport(ctx context.Context, cols []bitset, level []candidate, n, workers int) ([]int, error) {
	counts := make([]int, len(level))
	chunk := (len(level) + workers - 1) / workers
	if chunk == 0 {
		return counts, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(level); start += chunk {
		start, end := start, min(start+chunk, len(level))
		g.Go(func() error {
			scratch := newBitset(n)
			sets := make([]bitset, 0, 8)
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				sets = sets[:0]
				for _, j := range level[i] {
					sets = append(sets, cols[j])
				}
				counts[i] = andCount(sets, scratch)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("apriori: count support: %w", err)
	}
	return counts, nil
}

// generate builds (k+1)-candidates from sorted frequent k-itemsets: two sets
// sharing their first k-1 items are joined, and the result is dropped if any
// of its k-subsets is not frequent.
func generate(prev []candidate) []candidate {
	if len(prev) < 2 {
		return nil
	}
	known := make(map[string]struct{}, len(prev))
	for _, c := range prev {
		known[c.key()] = struct{}{}
	}

	var next []candidate
	for i := 0; i < len(prev); i++ {
		for j := i + 1; j < len(prev); j++ {
			a, b := prev[i], prev[j]
			if !samePrefix(a, b) {
				// prev is sorted, so no later b shares a's prefix either.
				break
			}
			c := make(candidate, len(a)+1)
			copy(c, a)
			c[len(a)] = b[len(b)-1]
			if allSubsetsKnown(c, known) {
				next = append(next, c)
			}
		}
	}
	sort.Slice(next, func(i, j int) bool { return less(next[i], next[j]) })
	return next
}

func samePrefix(a, b candidate) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// allSubsetsKnown reports whether every subset of c obtained by dropping
// one element is in known. The two subsets that formed c are skipped.
func allSubsetsKnown(c candidate, known map[string]struct{}) bool {
	sub := make(candidate, 0, len(c)-1)
	for skip := 0; skip < len(c)-2; skip++ {
		sub = sub[:0]
		sub = append(sub, c[:skip]...)
		sub = append(sub, c[skip+1:]...)
		if _, ok := known[sub.key()]; !ok {
			return false
		}
	}
	return true
}

func less(a, b candidate) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
