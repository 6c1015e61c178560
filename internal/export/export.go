package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/obsidianstack/basketrules/internal/config"
	"github.com/obsidianstack/basketrules/internal/ruletable"
	"github.com/obsidianstack/basketrules/pkg/types"
)

// Exporter writes a run somewhere.
type Exporter interface {
	Name() string
	Export(ctx context.Context, run *types.Run) error
}

// FromConfig returns one exporter per configured output path or webhook.
func FromConfig(cfg config.ExportConfig) []Exporter {
	var out []Exporter
	if cfg.CSV != "" {
		out = append(out, CSV{Path: cfg.CSV})
	}
	if cfg.XLSX != "" {
		out = append(out, XLSX{Path: cfg.XLSX})
	}
	if cfg.Prometheus != "" {
		out = append(out, Prometheus{Path: cfg.Prometheus})
	}
	if cfg.SQLite != "" {
		out = append(out, SQLite{Path: cfg.SQLite})
	}
	for _, wh := range cfg.Webhooks {
		out = append(out, Webhook{Type: wh.Type, URL: wh.URL(), Top: wh.Top})
	}
	return out
}

// CSV writes the rule table of a run.
type CSV struct {
	Path string
}

func (c CSV) Name() string { return "csv" }

func (c CSV) Export(_ context.Context, run *types.Run) error {
	return writeAtomic(c.Path, func(f *os.File) error {
		return ruletable.Write(f, run.Rules)
	})
}

// writeAtomic writes to a temp file next to path and renames it into place,
// so readers never observe a partial file.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("export: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: rename to %s: %w", path, err)
	}
	return nil
}
