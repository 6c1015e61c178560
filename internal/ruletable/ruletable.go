package ruletable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/obsidianstack/basketrules/pkg/types"
)

// Column names as written by Write.
const (
	ColAntecedents       = "antecedents"
	ColConsequents       = "consequents"
	ColAntecedentSupport = "antecedent support"
	ColConsequentSupport = "consequent support"
	ColSupport           = "support"
	ColConfidence        = "confidence"
	ColLift              = "lift"
	ColLeverage          = "leverage"
	ColConviction        = "conviction"
	ColZhang             = "zhang"
)

// Header is the column order written by Write.
var Header = []string{
	ColAntecedents,
	ColConsequents,
	ColAntecedentSupport,
	ColConsequentSupport,
	ColSupport,
	ColConfidence,
	ColLift,
	ColLeverage,
	ColConviction,
	ColZhang,
}

var required = []string{ColSupport, ColAntecedentSupport, ColConsequentSupport}

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrSeparatorInItem is returned by Write for an item label containing
	// types.ItemSeparator, which could not be split back apart on read.
	ErrSeparatorInItem = errors.New("item contains the item separator")
)

// Read parses a rule table. Rows keep their file order. Optional numeric
// columns that are absent or empty read as NaN.
func Read(r io.Reader) ([]types.Rule, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ruletable: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("ruletable: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalize(h)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("ruletable: %w %q", ErrMissingColumn, name)
		}
	}

	var out []types.Rule
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ruletable: row %d: %w", row, err)
		}
		rule, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("ruletable: row %d: %w", row, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func parseRow(rec []string, cols map[string]int) (types.Rule, error) {
	var (
		r   types.Rule
		err error
	)
	cell := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}
	number := func(name string, dst *float64, mandatory bool) {
		if err != nil {
			return
		}
		s, ok := cell(name)
		if !ok || s == "" {
			if mandatory {
				err = fmt.Errorf("column %q is empty", name)
				return
			}
			*dst = math.NaN()
			return
		}
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			err = fmt.Errorf("column %q: %q is not a number", name, s)
			return
		}
		*dst = v
	}

	number(ColSupport, &r.Support, true)
	number(ColAntecedentSupport, &r.AntecedentSupport, true)
	number(ColConsequentSupport, &r.ConsequentSupport, true)
	number(ColConfidence, &r.Confidence, false)
	number(ColLift, &r.Lift, false)
	number(ColLeverage, &r.Leverage, false)
	number(ColConviction, &r.Conviction, false)
	number(ColZhang, &r.Zhang, false)
	if err != nil {
		return types.Rule{}, err
	}

	if s, ok := cell(ColAntecedents); ok {
		r.Antecedents = parseItems(s)
	}
	if s, ok := cell(ColConsequents); ok {
		r.Consequents = parseItems(s)
	}
	return r, nil
}

// Write emits rules with Header, one row per rule in order.
func Write(w io.Writer, rules []types.Rule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("ruletable: write header: %w", err)
	}
	for i, r := range rules {
		if err := checkItems(r.Antecedents, r.Consequents); err != nil {
			return fmt.Errorf("ruletable: row %d: %w", i, err)
		}
		rec := []string{
			types.JoinItems(r.Antecedents),
			types.JoinItems(r.Consequents),
			formatFloat(r.AntecedentSupport),
			formatFloat(r.ConsequentSupport),
			formatFloat(r.Support),
			formatFloat(r.Confidence),
			formatFloat(r.Lift),
			formatFloat(r.Leverage),
			formatFloat(r.Conviction),
			formatFloat(r.Zhang),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("ruletable: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("ruletable: flush: %w", err)
	}
	return nil
}

func checkItems(sets ...[]string) error {
	for _, items := range sets {
		for _, it := range items {
			if strings.Contains(it, types.ItemSeparator) {
				return fmt.Errorf("%w: %q", ErrSeparatorInItem, it)
			}
		}
	}
	return nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// normalize maps "Antecedent_Support" and "antecedent-support" to
// "antecedent support".
func normalize(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// parseItems accepts "a|b" and "frozenset({'a', 'b'})".
func parseItems(s string) []string {
	if strings.HasPrefix(s, "frozenset(") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "frozenset("), ")")
		return parseSetLiteral(strings.Trim(s, "{}"))
	}
	return types.SplitItems(s)
}

// parseSetLiteral reads the quoted string elements of a set literal, so an
// element may contain commas. Backslash escapes the next byte. A literal
// with no quoted elements is split on commas.
func parseSetLiteral(s string) []string {
	var out []string
	quoted := false
	for i := 0; i < len(s); i++ {
		q := s[i]
		if q != '\'' && q != '"' {
			continue
		}
		quoted = true
		var b strings.Builder
		for i++; i < len(s) && s[i] != q; i++ {
			if s[i] == '\\' && i+1 < len(s) {
				i++
			}
			b.WriteByte(s[i])
		}
		if item := strings.TrimSpace(b.String()); item != "" {
			out = append(out, item)
		}
	}
	if quoted {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
