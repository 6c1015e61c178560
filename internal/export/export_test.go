package export

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/obsidianstack/basketrules/internal/config"
	"github.com/obsidianstack/basketrules/internal/ruletable"
	"github.com/obsidianstack/basketrules/pkg/types"
)

func sampleRun() *types.Run {
	return &types.Run{
		ID:           "7b0e5a8e-3c1f-4f5e-9a57-1f0d3f2c6a11",
		StartedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Source:       "market_items.csv",
		Transactions: 5,
		Items:        6,
		Itemsets: []types.Itemset{
			{Items: []string{"beer"}, Support: 0.6},
			{Items: []string{"diapers"}, Support: 0.8},
			{Items: []string{"beer", "diapers"}, Support: 0.6},
		},
		Rules: []types.Rule{
			{Antecedents: []string{"beer"}, Consequents: []string{"diapers"},
				Support: 0.6, AntecedentSupport: 0.6, ConsequentSupport: 0.8,
				Confidence: 1, Lift: 1.25, Leverage: 0.12, Conviction: math.Inf(1), Zhang: 0.5},
			{Antecedents: []string{"diapers"}, Consequents: []string{"beer"},
				Support: 0.6, AntecedentSupport: 0.8, ConsequentSupport: 0.6,
				Confidence: 0.75, Lift: 1.25, Leverage: 0.12, Conviction: 1.6, Zhang: math.NaN()},
		},
	}
}

func TestFromConfig(t *testing.T) {
	assert.Empty(t, FromConfig(config.ExportConfig{}))

	ex := FromConfig(config.ExportConfig{CSV: "a.csv", XLSX: "a.xlsx", Prometheus: "a.prom", SQLite: "a.db"})
	var names []string
	for _, e := range ex {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"csv", "xlsx", "prometheus", "sqlite"}, names)
}

func TestCSV_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rules.csv")
	require.NoError(t, CSV{Path: path}.Export(context.Background(), sampleRun()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rules, err := ruletable.Read(f)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, []string{"beer"}, rules[0].Antecedents)
	assert.Equal(t, 0.5, rules[0].Zhang)
	assert.True(t, math.IsNaN(rules[1].Zhang))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, sampleRun()))

	mfs, err := ReadMetrics(&buf)
	require.NoError(t, err)

	zhang := mfs["basketrules_rule_zhang"]
	require.NotNil(t, zhang)
	assert.Equal(t, dto.MetricType_GAUGE, zhang.GetType())
	assert.Len(t, zhang.GetMetric(), 2)

	v, ok := GaugeValue(zhang, map[string]string{"antecedents": "beer", "consequents": "diapers"})
	require.True(t, ok)
	assert.Equal(t, 0.5, v)

	v, ok = GaugeValue(zhang, map[string]string{"antecedents": "diapers", "consequents": "beer"})
	require.True(t, ok)
	assert.True(t, math.IsNaN(v))

	v, ok = GaugeValue(mfs["basketrules_rule_conviction"], map[string]string{"antecedents": "beer"})
	require.True(t, ok)
	assert.True(t, math.IsInf(v, 1))

	v, ok = GaugeValue(mfs["basketrules_itemset_support"], map[string]string{"itemset": "beer|diapers", "length": "2"})
	require.True(t, ok)
	assert.Equal(t, 0.6, v)

	v, ok = GaugeValue(mfs["basketrules_transactions"], map[string]string{
		"run_id": "7b0e5a8e-3c1f-4f5e-9a57-1f0d3f2c6a11",
		"source": "market_items.csv",
	})
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = GaugeValue(zhang, map[string]string{"antecedents": "milk"})
	assert.False(t, ok)
	_, ok = GaugeValue(nil, nil)
	assert.False(t, ok)
}

func TestPrometheus_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basketrules.prom")
	require.NoError(t, Prometheus{Path: path}.Export(context.Background(), sampleRun()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	mfs, err := ReadMetrics(f)
	require.NoError(t, err)

	v, ok := GaugeValue(mfs["basketrules_rule_lift"], map[string]string{"antecedents": "beer", "consequents": "diapers"})
	require.True(t, ok)
	assert.Equal(t, 1.25, v)
}

func TestReadMetrics_Malformed(t *testing.T) {
	_, err := ReadMetrics(strings.NewReader("basketrules_rule_lift{antecedents=\"a\" 1\n"))
	assert.Error(t, err)
}

func TestXLSX_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, XLSX{Path: path}.Export(context.Background(), sampleRun()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{SheetRules, SheetItemsets, SheetRun}, f.GetSheetList())

	rows, err := f.GetRows(SheetRules)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ruletable.Header, rows[0])
	assert.Equal(t, "beer", rows[1][0])
	assert.Equal(t, "inf", rows[1][8])
	assert.Equal(t, "NaN", rows[2][9])

	rows, err = f.GetRows(SheetItemsets)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "beer|diapers", rows[3][0])

	rows, err = f.GetRows(SheetRun)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "7b0e5a8e-3c1f-4f5e-9a57-1f0d3f2c6a11"}, rows[0])
}

func TestSQLite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	run := sampleRun()
	require.NoError(t, SQLite{Path: path}.Export(context.Background(), run))

	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	rules, err := ReadRules(context.Background(), db, run.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, []string{"beer"}, rules[0].Antecedents)
	assert.Equal(t, []string{"diapers"}, rules[0].Consequents)
	assert.InDelta(t, 0.5, rules[0].Zhang, 1e-12)
	assert.True(t, math.IsNaN(rules[0].Conviction), "infinite conviction is stored as NULL")
	assert.True(t, math.IsNaN(rules[1].Zhang))
	assert.InDelta(t, 1.6, rules[1].Conviction, 1e-12)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM itemsets WHERE run_id = ?`, run.ID).Scan(&n))
	assert.Equal(t, 3, n)

	// Same run twice violates the primary key.
	assert.Error(t, InsertRun(context.Background(), db, run))
}
