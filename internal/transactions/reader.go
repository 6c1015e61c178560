package transactions

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Input formats accepted by Load.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Source describes where baskets are read from.
type Source struct {
	Path   string
	Format string // csv | xlsx | auto (by extension)

	// Delimiter is the CSV field separator. Zero means ','.
	Delimiter rune

	// Sheet is the XLSX sheet to read. Empty means the first sheet.
	Sheet string
}

// Load reads all baskets described by src.
func Load(src Source) ([][]string, error) {
	format, err := resolveFormat(src)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSX(src.Path, src.Sheet)
	default:
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("transactions: open %s: %w", src.Path, err)
		}
		defer f.Close()
		return ReadCSV(f, src.Delimiter)
	}
}

func resolveFormat(src Source) (string, error) {
	switch strings.ToLower(src.Format) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case "", FormatAuto:
		switch strings.ToLower(filepath.Ext(src.Path)) {
		case ".xlsx", ".xlsm":
			return FormatXLSX, nil
		default:
			return FormatCSV, nil
		}
	default:
		return "", fmt.Errorf("transactions: unknown format %q", src.Format)
	}
}

// ReadCSV reads one basket per CSV record. delim 0 means ','.
//
// A blank line is an empty basket, not a skipped line: it still counts as
// a transaction. Quoted fields may span lines.
func ReadCSV(r io.Reader, delim rune) ([][]string, error) {
	br := bufio.NewReader(r)

	var (
		baskets [][]string
		pending strings.Builder
		line    int
		start   int
	)
	flush := func() error {
		rec, err := parseRecord(pending.String(), delim)
		pending.Reset()
		if err != nil {
			return fmt.Errorf("transactions: read csv line %d: %w", start, err)
		}
		baskets = append(baskets, clean(rec))
		return nil
	}

	for {
		text, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("transactions: read line %d: %w", line+1, err)
		}
		eof := err != nil
		if text == "" {
			if pending.Len() > 0 {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			break
		}
		line++

		if pending.Len() == 0 {
			start = line
			if strings.TrimRight(text, "\r\n") == "" {
				baskets = append(baskets, []string{})
				if eof {
					break
				}
				continue
			}
		}

		pending.WriteString(text)
		// An odd quote count means a quoted field continues on the next line.
		if strings.Count(pending.String(), `"`)%2 == 0 || eof {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		if eof {
			break
		}
	}
	return baskets, nil
}

// parseRecord parses one logical CSV record.
func parseRecord(text string, delim rune) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1 // baskets have different sizes
	cr.TrimLeadingSpace = true
	if delim != 0 {
		cr.Comma = delim
	}
	rec, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return rec, err
}

// ReadXLSX reads one basket per row of sheet. An empty sheet name selects
// the first sheet of the workbook.
func ReadXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("transactions: open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("transactions: workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("transactions: read sheet %q: %w", sheet, err)
	}
	baskets := make([][]string, 0, len(rows))
	for _, row := range rows {
		baskets = append(baskets, clean(row))
	}
	return baskets, nil
}

// Preview returns at most n baskets from the front of baskets.
func Preview(baskets [][]string, n int) [][]string {
	if n < 0 || n > len(baskets) {
		n = len(baskets)
	}
	return baskets[:n]
}

// clean trims every field and drops empty ones.
func clean(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
