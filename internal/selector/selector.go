// Package selector projects a table down to the exact ordered feature list
// the classifier was trained on.
package selector

import (
	"github.com/churnscope/churnscope/internal/common"
	"github.com/churnscope/churnscope/internal/table"
)

// Select returns the model-input table: exactly the named features, in order.
// A missing required feature is fatal; extra columns are dropped silently.
func Select(t *table.Table, features []string) (*table.Table, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, common.NewStructuralError("select", "empty table", "input has no rows")
	}
	for _, name := range features {
		if !t.HasColumn(name) {
			return nil, common.NewStructuralErrorf("select", "required feature missing", "feature %q not present", name)
		}
	}
	out, err := t.Select(features)
	if err != nil {
		return nil, common.NewStructuralError("select", "projection failed", err.Error())
	}
	return out, nil
}
