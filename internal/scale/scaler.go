// Package scale applies a frozen affine (mean/variance) transform to a fixed
// set of numeric columns. Statistics are captured at training time and never
// recomputed from the batch being scored, keeping runs deterministic and free
// of leakage.
package scale

import (
	"fmt"

	"github.com/churnscope/churnscope/internal/table"
)

// Scaler holds per-column mean and standard deviation.
type Scaler struct {
	columns []string
	mean    map[string]float64
	std     map[string]float64
}

// New builds a scaler from parallel column/mean/std slices. A zero standard
// deviation marks a degenerate training-time feature and is rejected.
func New(columns []string, means, stds []float64) (*Scaler, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("scaler: no columns")
	}
	if len(means) != len(columns) || len(stds) != len(columns) {
		return nil, fmt.Errorf("scaler: %d columns, %d means, %d stds", len(columns), len(means), len(stds))
	}
	s := &Scaler{
		columns: make([]string, len(columns)),
		mean:    make(map[string]float64, len(columns)),
		std:     make(map[string]float64, len(columns)),
	}
	copy(s.columns, columns)
	for i, c := range columns {
		if _, dup := s.mean[c]; dup {
			return nil, fmt.Errorf("scaler: duplicate column %q", c)
		}
		if stds[i] == 0 {
			return nil, fmt.Errorf("scaler: column %q has zero standard deviation", c)
		}
		s.mean[c] = means[i]
		s.std[c] = stds[i]
	}
	return s, nil
}

// Columns returns the ordered column list the scaler was fitted on.
func (s *Scaler) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Covers reports whether every named column has frozen statistics.
func (s *Scaler) Covers(names []string) bool {
	for _, n := range names {
		if _, ok := s.mean[n]; !ok {
			return false
		}
	}
	return true
}

// Normalize returns a table with every scaler column transformed by
// (x - mean) / std. The scaler's column list must be a subset of the table's
// columns; other columns pass through untouched.
func (s *Scaler) Normalize(t *table.Table) (*table.Table, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, fmt.Errorf("normalize: empty table")
	}
	for _, c := range s.columns {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("normalize: table missing scaler column %q", c)
		}
	}

	out := t.Clone()
	for _, c := range s.columns {
		idx, _ := out.ColumnIndex(c)
		mean, std := s.mean[c], s.std[c]
		for r := 0; r < out.NumRows(); r++ {
			v, _ := out.At(r, c)
			f, ok := table.Float(v)
			if !ok {
				return nil, fmt.Errorf("normalize: column %q row %d is not numeric (%v)", c, r, v)
			}
			out.SetAt(r, idx, (f-mean)/std)
		}
	}
	return out, nil
}
