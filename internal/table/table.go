// Package table implements the ordered, in-memory column table every pipeline
// stage consumes and produces. Tables are never mutated across stage
// boundaries: each stage builds its output from its input and both remain
// addressable for the rest of the run.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a single cell. Supported dynamic types are nil, string, bool,
// int, int64 and float64.
type Value any

// Table is a rectangular dataset with named, ordered columns.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New creates an empty table with the given column order.
func New(columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: no columns")
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("table: empty column name at position %d", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c)
		}
		index[c] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{cols: cols, index: index}, nil
}

// AppendRow adds one row; its width must match the column count.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("table: row width %d does not match %d columns", len(row), len(t.cols))
	}
	r := make([]Value, len(row))
	copy(r, row)
	t.rows = append(t.rows, r)
	return nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns a copy of the ordered column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// At returns the cell at (row, column name).
func (t *Table) At(row int, name string) (Value, bool) {
	i, ok := t.index[name]
	if !ok || row < 0 || row >= len(t.rows) {
		return nil, false
	}
	return t.rows[row][i], true
}

// SetAt replaces the cell at (row, column position). Out-of-range positions
// are ignored.
func (t *Table) SetAt(row, col int, v Value) {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.cols) {
		return
	}
	t.rows[row][col] = v
}

// Row returns a copy of the row at the given position.
func (t *Table) Row(row int) []Value {
	if row < 0 || row >= len(t.rows) {
		return nil
	}
	out := make([]Value, len(t.rows[row]))
	copy(out, t.rows[row])
	return out
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for r := range t.rows {
		out[r] = t.rows[r][i]
	}
	return out, true
}

// Clone returns a deep copy. Cells are scalars, so copying rows suffices.
func (t *Table) Clone() *Table {
	out, _ := New(t.cols)
	out.rows = make([][]Value, len(t.rows))
	for r := range t.rows {
		row := make([]Value, len(t.rows[r]))
		copy(row, t.rows[r])
		out.rows[r] = row
	}
	return out
}

// AppendColumn adds a column on the right; values must cover every row.
func (t *Table) AppendColumn(name string, values []Value) (*Table, error) {
	if t.HasColumn(name) {
		return nil, fmt.Errorf("table: column %q already exists", name)
	}
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("table: column %q has %d values for %d rows", name, len(values), len(t.rows))
	}
	out, err := New(append(t.Columns(), name))
	if err != nil {
		return nil, err
	}
	for r := range t.rows {
		row := make([]Value, len(t.rows[r])+1)
		copy(row, t.rows[r])
		row[len(row)-1] = values[r]
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// DropColumns removes the named columns. Absent names are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []string
	for _, c := range t.cols {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := New(keep)
	for r := range t.rows {
		row := make([]Value, 0, len(keep))
		for i, c := range t.cols {
			if !drop[c] {
				row = append(row, t.rows[r][i])
			}
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// Select projects and reorders to exactly the named columns. A missing column
// is an error; extra columns are dropped.
func (t *Table) Select(names []string) (*Table, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		pos, ok := t.index[n]
		if !ok {
			return nil, fmt.Errorf("table: missing column %q", n)
		}
		idx[i] = pos
	}
	out, err := New(names)
	if err != nil {
		return nil, err
	}
	for r := range t.rows {
		row := make([]Value, len(idx))
		for i, pos := range idx {
			row[i] = t.rows[r][pos]
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// Filter returns the rows for which keep returns true, same columns.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out, _ := New(t.cols)
	for r := range t.rows {
		if keep(r) {
			row := make([]Value, len(t.rows[r]))
			copy(row, t.rows[r])
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Float coerces a cell to float64. Strings are parsed; bools map to 0/1; nil
// and unparsable values report false.
func Float(v Value) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsNull reports whether a cell is nil or blank.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// FormatValue renders a cell for delimited-text output.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", x)
	}
}
