// Package features orchestrates the field extractors across a table,
// appending the derived numeric columns and dropping the raw semi-structured
// ones. Rows carry no cross-row state, so extraction fans out over a bounded
// worker pool with deterministic output.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/fields"
	"github.com/churnscope/churnscope/internal/table"
)

// Report records recovered conditions observed while deriving. Fallbacks are
// observability data, never run-blocking.
type Report struct {
	Rows int
	// Fallbacks counts, per field, the rows whose payload was absent or
	// malformed and used defaults.
	Fallbacks map[constants.FieldName]int
}

// Deriver runs the extractor registry over every row.
type Deriver struct {
	registry map[constants.FieldName]fields.Func
	workers  int
	logger   *slog.Logger
}

// NewDeriver builds a deriver. workers <= 0 selects GOMAXPROCS.
func NewDeriver(workers int, logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Deriver{registry: fields.Registry(), workers: workers, logger: logger}
}

// rowResult is the full derived vector for one row plus its fallback fields.
type rowResult struct {
	values    map[string]float64
	fallbacks []constants.FieldName
}

// Derive produces the parsed table: every input column except the eight
// semi-structured ones, followed by the derived columns in their documented
// order.
func (d *Deriver) Derive(ctx context.Context, t *table.Table) (*table.Table, *Report, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, nil, fmt.Errorf("derive: empty table")
	}

	results := make([]rowResult, t.NumRows())
	if err := d.runRows(ctx, t, results); err != nil {
		return nil, nil, err
	}

	report := &Report{Rows: t.NumRows(), Fallbacks: make(map[constants.FieldName]int)}
	for _, res := range results {
		for _, f := range res.fallbacks {
			report.Fallbacks[f]++
		}
	}
	for field, n := range report.Fallbacks {
		d.logger.Warn("features.fallback", "field", string(field), "rows", n)
	}

	out, err := d.assemble(t, results)
	if err != nil {
		return nil, nil, err
	}
	d.logger.Info("features.derive.ok",
		"rows", report.Rows,
		"derived_columns", len(constants.DerivedColumns),
	)
	return out, report, nil
}

func (d *Deriver) runRows(ctx context.Context, t *table.Table, results []rowResult) error {
	workers := d.workers
	if workers > t.NumRows() {
		workers = t.NumRows()
	}
	rowsPerWorker := (t.NumRows() + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if end > t.NumRows() {
			end = t.NumRows()
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				results[i] = d.deriveRow(t, i)
			}
		}(start, end)
	}
	wg.Wait()
	return ctx.Err()
}

func (d *Deriver) deriveRow(t *table.Table, row int) rowResult {
	res := rowResult{values: make(map[string]float64, len(constants.DerivedColumns))}
	for _, field := range constants.Fields() {
		cell, _ := t.At(row, string(field))
		extraction := d.registry[field](cell)
		for name, value := range extraction.Values {
			res.values[name] = value
		}
		if extraction.Fallback {
			res.fallbacks = append(res.fallbacks, field)
		}
	}
	return res
}

func (d *Deriver) assemble(t *table.Table, results []rowResult) (*table.Table, error) {
	kept := t.DropColumns(constants.FieldsAsStrings()...)
	for _, name := range constants.DerivedColumns {
		if kept.HasColumn(name) {
			return nil, fmt.Errorf("derive: input already carries derived column %q", name)
		}
	}

	cols := append(kept.Columns(), constants.DerivedColumns...)
	out, err := table.New(cols)
	if err != nil {
		return nil, err
	}
	for r := 0; r < kept.NumRows(); r++ {
		row := kept.Row(r)
		for _, name := range constants.DerivedColumns {
			row = append(row, results[r].values[name])
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}
