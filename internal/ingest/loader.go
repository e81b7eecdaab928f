// Package ingest loads customer tables from delimited-text or spreadsheet
// files into the in-memory table representation.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/churnscope/churnscope/internal/table"
)

// Loader reads tabular input files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader builds a loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadFile dispatches on the file extension. Supported: .csv, .xlsx.
func (l *Loader) LoadFile(path string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.loadCSV(path)
	case ".xlsx":
		return l.loadXLSX(path)
	default:
		return nil, fmt.Errorf("ingest: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func (l *Loader) loadCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := table.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", path, err)
	}
	l.logger.Info("ingest.csv.ok", "path", path, "rows", t.NumRows(), "columns", t.NumCols())
	return t, nil
}

func (l *Loader) loadXLSX(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("ingest: %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ingest: read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ingest: %s sheet %q is empty", path, sheets[0])
	}

	t, err := table.New(rows[0])
	if err != nil {
		return nil, fmt.Errorf("ingest: %s header: %w", path, err)
	}
	width := len(rows[0])
	for _, record := range rows[1:] {
		row := make([]table.Value, width)
		for i := 0; i < width; i++ {
			// excelize trims trailing empty cells from each record.
			if i < len(record) && record[i] != "" {
				row[i] = record[i]
			}
		}
		if err := t.AppendRow(row); err != nil {
			return nil, fmt.Errorf("ingest: %s: %w", path, err)
		}
	}
	l.logger.Info("ingest.xlsx.ok", "path", path, "sheet", sheets[0], "rows", t.NumRows(), "columns", t.NumCols())
	return t, nil
}
