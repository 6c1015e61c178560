package export

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/obsidianstack/basketrules/internal/ruletable"
	"github.com/obsidianstack/basketrules/pkg/types"
)

// Sheet names written by XLSX.
const (
	SheetRun      = "run"
	SheetItemsets = "itemsets"
	SheetRules    = "rules"
)

// XLSX writes a run as a workbook.
type XLSX struct {
	Path string
}

func (x XLSX) Name() string { return "xlsx" }

func (x XLSX) Export(_ context.Context, run *types.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRules); err != nil {
		return fmt.Errorf("export: xlsx: %w", err)
	}
	for _, name := range []string{SheetItemsets, SheetRun} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export: xlsx: new sheet %s: %w", name, err)
		}
	}

	header := make([]interface{}, len(ruletable.Header))
	for i, h := range ruletable.Header {
		header[i] = h
	}
	rows := [][]interface{}{header}
	for _, r := range run.Rules {
		rows = append(rows, []interface{}{
			types.JoinItems(r.Antecedents),
			types.JoinItems(r.Consequents),
			cellValue(r.AntecedentSupport),
			cellValue(r.ConsequentSupport),
			cellValue(r.Support),
			cellValue(r.Confidence),
			cellValue(r.Lift),
			cellValue(r.Leverage),
			cellValue(r.Conviction),
			cellValue(r.Zhang),
		})
	}
	if err := writeRows(f, SheetRules, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"itemsets", "length", "support"}}
	for _, s := range run.Itemsets {
		rows = append(rows, []interface{}{s.Key(), s.Len(), cellValue(s.Support)})
	}
	if err := writeRows(f, SheetItemsets, rows); err != nil {
		return err
	}

	rows = [][]interface{}{
		{"id", run.ID},
		{"started_at", run.StartedAt.UTC().Format(time.RFC3339)},
		{"source", run.Source},
		{"transactions", run.Transactions},
		{"items", run.Items},
		{"itemsets", len(run.Itemsets)},
		{"rules", len(run.Rules)},
	}
	if err := writeRows(f, SheetRun, rows); err != nil {
		return err
	}

	return writeAtomic(x.Path, func(out *os.File) error {
		if _, err := f.WriteTo(out); err != nil {
			return fmt.Errorf("export: xlsx: write: %w", err)
		}
		return nil
	})
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: xlsx: %w", err)
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: xlsx: sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cellValue keeps finite numbers numeric. Spreadsheets have no NaN or
// infinity, so those are written as text.
func cellValue(v float64) interface{} {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return v
	}
}
