package transactions

import (
	"fmt"
	"sort"
)

// Matrix is a one-hot encoded transaction table. Rows[i][j] is true when
// transaction i contains Columns[j].
type Matrix struct {
	Columns []string
	Rows    [][]bool
}

// NumTransactions returns the number of rows.
func (m *Matrix) NumTransactions() int { return len(m.Rows) }

// ColumnIndex returns the index of label, or -1.
func (m *Matrix) ColumnIndex(label string) int {
	i := sort.SearchStrings(m.Columns, label)
	if i < len(m.Columns) && m.Columns[i] == label {
		return i
	}
	return -1
}

// Info summarises a Matrix.
type Info struct {
	Transactions int
	Items        int
	// Counts holds the number of transactions containing each column.
	Counts []int
	// Density is the fraction of true cells.
	Density float64
}

// Info computes column counts and density.
func (m *Matrix) Info() Info {
	info := Info{
		Transactions: len(m.Rows),
		Items:        len(m.Columns),
		Counts:       make([]int, len(m.Columns)),
	}
	var set int
	for _, row := range m.Rows {
		for j, v := range row {
			if v {
				info.Counts[j]++
				set++
			}
		}
	}
	if cells := info.Transactions * info.Items; cells > 0 {
		info.Density = float64(set) / float64(cells)
	}
	return info
}

// Encoder learns the item vocabulary of a basket list and encodes baskets
// against it.
type Encoder struct {
	columns []string
	index   map[string]int
}

// Fit extracts the sorted unique labels of baskets.
func (e *Encoder) Fit(baskets [][]string) *Encoder {
	seen := make(map[string]struct{})
	for _, b := range baskets {
		for _, item := range b {
			seen[item] = struct{}{}
		}
	}
	e.columns = make([]string, 0, len(seen))
	for item := range seen {
		e.columns = append(e.columns, item)
	}
	sort.Strings(e.columns)

	e.index = make(map[string]int, len(e.columns))
	for i, c := range e.columns {
		e.index[c] = i
	}
	return e
}

// Columns returns the labels learned by Fit.
func (e *Encoder) Columns() []string { return e.columns }

// Transform encodes baskets. Every item must have been seen by Fit.
func (e *Encoder) Transform(baskets [][]string) (*Matrix, error) {
	if e.index == nil {
		return nil, fmt.Errorf("transactions: encoder is not fitted")
	}
	m := &Matrix{
		Columns: e.columns,
		Rows:    make([][]bool, len(baskets)),
	}
	for i, b := range baskets {
		row := make([]bool, len(e.columns))
		for _, item := range b {
			j, ok := e.index[item]
			if !ok {
				return nil, fmt.Errorf("transactions: basket %d: unknown item %q", i, item)
			}
			row[j] = true
		}
		m.Rows[i] = row
	}
	return m, nil
}

// FitTransform is Fit followed by Transform on the same baskets.
func (e *Encoder) FitTransform(baskets [][]string) (*Matrix, error) {
	return e.Fit(baskets).Transform(baskets)
}
