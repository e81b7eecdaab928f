// Package schema checks tables against per-boundary column contracts. The
// pipeline applies one contract after loading, after feature derivation,
// after scaling and before scoring.
package schema

import (
	"fmt"
	"strings"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/common"
	"github.com/churnscope/churnscope/internal/table"
)

// Kind is the declared type of a contract column.
type Kind string

const (
	KindAny     Kind = "any"
	KindText    Kind = "text"
	KindNumeric Kind = "numeric"
)

// Column declares one required column and its expected type.
type Column struct {
	Name string
	Kind Kind
}

// Contract is the expected shape of a table at one pipeline boundary.
type Contract struct {
	Stage string
	// Required columns; presence, non-all-null and type coercibility are
	// checked for each.
	Columns []Column
	// NonNull columns must not contain a single null cell.
	NonNull []string
	// Unique columns report duplicated values as warnings.
	Unique []string
	// Exact requires the table header to equal the contract columns in
	// name and order, with nothing extra.
	Exact bool
}

// Violation records one failed rule for one column.
type Violation struct {
	Column   string
	Rule     string
	Observed string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (observed: %s)", v.Column, v.Rule, v.Observed)
}

// Result is the outcome of validating one boundary.
type Result struct {
	Stage      string
	Valid      bool
	Violations []Violation
	Warnings   []Violation
}

// Err converts a failed result into a stage-tagged structural error.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return common.NewStructuralError(r.Stage, "schema contract", strings.Join(parts, "; "))
}

// Validate checks a table against a contract. Data-quality findings land in
// the result; only a structurally unusable table (nil or zero rows) returns
// an error.
func Validate(t *table.Table, c Contract) (*Result, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, common.NewStructuralError(c.Stage, "empty table", "input has no rows")
	}

	res := &Result{Stage: c.Stage, Valid: true}

	if c.Exact {
		want := make([]string, len(c.Columns))
		for i, col := range c.Columns {
			want[i] = col.Name
		}
		got := t.Columns()
		if len(got) != len(want) {
			res.Violations = append(res.Violations, Violation{
				Column:   "*",
				Rule:     "column count must match",
				Observed: fmt.Sprintf("%d columns, want %d", len(got), len(want)),
			})
		} else {
			for i := range want {
				if got[i] != want[i] {
					res.Violations = append(res.Violations, Violation{
						Column:   want[i],
						Rule:     "column order must match",
						Observed: fmt.Sprintf("position %d holds %q", i, got[i]),
					})
				}
			}
		}
	}

	for _, col := range c.Columns {
		if !t.HasColumn(col.Name) {
			res.Violations = append(res.Violations, Violation{
				Column:   col.Name,
				Rule:     "required column missing",
				Observed: "absent",
			})
			continue
		}
		cells, _ := t.Column(col.Name)
		nulls, numeric := 0, 0
		for _, v := range cells {
			if table.IsNull(v) {
				nulls++
				continue
			}
			if _, ok := table.Float(v); ok {
				numeric++
			}
		}
		if nulls == len(cells) {
			res.Violations = append(res.Violations, Violation{
				Column:   col.Name,
				Rule:     "column entirely null",
				Observed: fmt.Sprintf("%d null cells", nulls),
			})
			continue
		}
		if col.Kind == KindNumeric && numeric+nulls < len(cells) {
			res.Violations = append(res.Violations, Violation{
				Column:   col.Name,
				Rule:     "column not coercible to numeric",
				Observed: fmt.Sprintf("%d non-numeric cells", len(cells)-numeric-nulls),
			})
		}
	}

	for _, name := range c.NonNull {
		cells, ok := t.Column(name)
		if !ok {
			continue
		}
		nulls := 0
		for _, v := range cells {
			if table.IsNull(v) {
				nulls++
			}
		}
		if nulls > 0 {
			res.Violations = append(res.Violations, Violation{
				Column:   name,
				Rule:     "null values not allowed",
				Observed: fmt.Sprintf("%d null cells", nulls),
			})
		}
	}

	for _, name := range c.Unique {
		cells, ok := t.Column(name)
		if !ok {
			continue
		}
		seen := make(map[string]bool, len(cells))
		dups := 0
		for _, v := range cells {
			key := table.FormatValue(v)
			if seen[key] {
				dups++
			}
			seen[key] = true
		}
		if dups > 0 {
			res.Warnings = append(res.Warnings, Violation{
				Column:   name,
				Rule:     "duplicated values",
				Observed: fmt.Sprintf("%d duplicates", dups),
			})
		}
	}

	res.Valid = len(res.Violations) == 0
	return res, nil
}

// RawContract is the post-load boundary: identifier plus demographics plus
// the eight semi-structured field columns.
func RawContract() Contract {
	cols := []Column{
		{Name: constants.ColumnCustomerID, Kind: KindAny},
		{Name: "Age", Kind: KindNumeric},
		{Name: "Gender", Kind: KindText},
		{Name: "Segment", Kind: KindText},
		{Name: "NPS", Kind: KindNumeric},
	}
	for _, f := range constants.FieldsAsStrings() {
		cols = append(cols, Column{Name: f, Kind: KindAny})
	}
	return Contract{
		Stage:   "raw",
		Columns: cols,
		NonNull: []string{constants.ColumnCustomerID},
		Unique:  []string{constants.ColumnCustomerID},
	}
}

// ParsedContract is the post-extraction boundary: all derived columns exist
// and are numeric.
func ParsedContract() Contract {
	cols := make([]Column, 0, len(constants.DerivedColumns))
	for _, name := range constants.DerivedColumns {
		cols = append(cols, Column{Name: name, Kind: KindNumeric})
	}
	return Contract{Stage: "parsed", Columns: cols}
}

// NormalizedContract is the post-scaling boundary: the scaled columns are
// present and numeric.
func NormalizedContract(scaled []string) Contract {
	cols := make([]Column, 0, len(scaled))
	for _, name := range scaled {
		cols = append(cols, Column{Name: name, Kind: KindNumeric})
	}
	return Contract{Stage: "normalized", Columns: cols}
}

// ModelInputContract is the pre-scoring boundary: exactly the ordered model
// features, bit-for-bit.
func ModelInputContract(features []string) Contract {
	cols := make([]Column, 0, len(features))
	for _, name := range features {
		cols = append(cols, Column{Name: name, Kind: KindNumeric})
	}
	return Contract{Stage: "model_input", Columns: cols, Exact: true}
}
