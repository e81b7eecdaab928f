// Package encode expands categorical columns into fixed sets of binary
// indicator columns. The indicator set comes from a closed, versioned
// vocabulary, so output width is stable regardless of input contents.
package encode

import (
	"fmt"
	"log/slog"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/table"
)

// Report counts recovered out-of-vocabulary values per categorical column.
type Report struct {
	OutOfVocab map[string]int
}

// Encoder one-hot encodes the known categorical columns.
type Encoder struct {
	columns []string
	vocab   map[string][]string
	logger  *slog.Logger
}

// NewEncoder builds an encoder over the versioned vocabulary.
func NewEncoder(logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{
		columns: constants.CategoricalColumns,
		vocab:   constants.CategoricalVocabulary,
		logger:  logger,
	}
}

// IndicatorName is the derived indicator column for one category value.
func IndicatorName(column, value string) string {
	return column + "_" + value
}

// Encode replaces each present categorical column with its indicator columns.
// A value outside the vocabulary produces all-zero indicators and a report
// entry. Absent categorical columns are skipped, which makes encoding an
// already-encoded table a no-op.
func (e *Encoder) Encode(t *table.Table) (*table.Table, *Report, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, nil, fmt.Errorf("encode: empty table")
	}

	report := &Report{OutOfVocab: make(map[string]int)}
	out := t
	for _, column := range e.columns {
		if !out.HasColumn(column) {
			continue
		}
		next, unknown, err := e.encodeColumn(out, column)
		if err != nil {
			return nil, nil, err
		}
		out = next
		if unknown > 0 {
			report.OutOfVocab[column] = unknown
			e.logger.Warn("encode.out_of_vocab", "column", column, "rows", unknown)
		}
	}
	return out, report, nil
}

func (e *Encoder) encodeColumn(t *table.Table, column string) (*table.Table, int, error) {
	cells, _ := t.Column(column)
	unknown := 0
	out := t
	for _, value := range e.vocab[column] {
		indicators := make([]table.Value, len(cells))
		for r, cell := range cells {
			if s, ok := cell.(string); ok && s == value {
				indicators[r] = 1.0
			} else {
				indicators[r] = 0.0
			}
		}
		next, err := out.AppendColumn(IndicatorName(column, value), indicators)
		if err != nil {
			return nil, 0, fmt.Errorf("encode %s: %w", column, err)
		}
		out = next
	}
	for _, cell := range cells {
		if table.IsNull(cell) {
			unknown++
			continue
		}
		s, ok := cell.(string)
		if !ok || !contains(e.vocab[column], s) {
			unknown++
		}
	}
	return out.DropColumns(column), unknown, nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
