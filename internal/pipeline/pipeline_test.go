package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/basketrules/internal/compute"
	"github.com/obsidianstack/basketrules/internal/config"
	"github.com/obsidianstack/basketrules/internal/export"
	"github.com/obsidianstack/basketrules/pkg/types"
)

const groceries = `bread,milk
bread,diapers,beer,eggs
milk,diapers,beer,cola
bread,milk,diapers,beer
bread,milk,diapers,cola
`

type recordingExporter struct {
	got *types.Run
	err error
}

func (e *recordingExporter) Name() string { return "recording" }

func (e *recordingExporter) Export(_ context.Context, run *types.Run) error {
	e.got = run
	return e.err
}

func testRunner(ex export.Exporter) *Runner {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Runner{
		now:   func() time.Time { return start },
		newID: func() string { return "run-1" },
		exporters: func(config.ExportConfig) []export.Exporter {
			if ex == nil {
				return nil
			}
			return []export.Exporter{ex}
		},
	}
}

func testConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baskets.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	cfg := config.Default()
	cfg.Input.Path = path
	cfg.Mining.MinSupport = 0.6
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	ex := &recordingExporter{}
	cfg := testConfig(t, groceries)

	var out bytes.Buffer
	run, err := testRunner(ex).Run(context.Background(), cfg, &out)
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 5, run.Transactions)
	assert.Equal(t, 6, run.Items)
	assert.Len(t, run.Itemsets, 8)
	assert.Len(t, run.Rules, 8)
	assert.Same(t, run, ex.got)

	for _, r := range run.Rules {
		assert.GreaterOrEqual(t, r.Confidence, cfg.Rules.MinThreshold, r.String())
		assert.False(t, math.IsNaN(r.Zhang), r.String())
	}
	assert.Contains(t, out.String(), "### rules by zhang descending, head 5")
}

func TestRun_QuietAndFilters(t *testing.T) {
	cfg := testConfig(t, groceries)
	cfg.Report.Quiet = true
	cfg.Rules.Filters = []string{"zhang >= 0.5"}

	var out bytes.Buffer
	run, err := testRunner(nil).Run(context.Background(), cfg, &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())
	for _, r := range run.Rules {
		assert.GreaterOrEqual(t, r.Zhang, 0.5, r.String())
	}
}

func TestRun_DegenerateReject(t *testing.T) {
	// "bread" is in every basket: bread => bread-only rules are degenerate.
	cfg := testConfig(t, "bread,milk\nbread,milk\nbread,milk\n")
	cfg.Zhang.OnDegenerate = string(compute.PolicyReject)

	_, err := testRunner(nil).Run(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, compute.ErrDegenerate)
	assert.Contains(t, err.Error(), "pipeline: rules")

	cfg.Zhang.OnDegenerate = string(compute.PolicyNaN)
	run, err := testRunner(nil).Run(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotEmpty(t, run.Rules)
	assert.True(t, math.IsNaN(run.Rules[0].Zhang))
}

func TestRun_ExportError(t *testing.T) {
	ex := &recordingExporter{err: errors.New("read-only file system")}
	_, err := testRunner(ex).Run(context.Background(), testConfig(t, groceries), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export recording")
}

func TestRun_MissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Path = filepath.Join(t.TempDir(), "absent.csv")
	_, err := testRunner(nil).Run(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: load")
}

func TestRun_RealExporters(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, groceries)
	cfg.Report.Quiet = true
	cfg.Export = config.ExportConfig{
		CSV:        filepath.Join(dir, "rules.csv"),
		XLSX:       filepath.Join(dir, "rules.xlsx"),
		Prometheus: filepath.Join(dir, "rules.prom"),
		SQLite:     filepath.Join(dir, "rules.db"),
	}

	_, err := New().Run(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	for _, p := range []string{cfg.Export.CSV, cfg.Export.XLSX, cfg.Export.Prometheus, cfg.Export.SQLite} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}
