package table

import "math"

// ColumnStats summarizes one column for snapshot inspection.
type ColumnStats struct {
	Column  string
	Mean    float64
	Std     float64
	Min     float64
	Max     float64
	Missing int
	Numeric int
}

// Stats computes per-column summary statistics. Non-numeric cells count as
// missing for the aggregates but never fail.
func (t *Table) Stats() []ColumnStats {
	out := make([]ColumnStats, 0, len(t.cols))
	for i, name := range t.cols {
		st := ColumnStats{Column: name, Min: math.Inf(1), Max: math.Inf(-1)}
		var sum, sumSq float64
		for r := range t.rows {
			f, ok := Float(t.rows[r][i])
			if !ok {
				st.Missing++
				continue
			}
			st.Numeric++
			sum += f
			sumSq += f * f
			if f < st.Min {
				st.Min = f
			}
			if f > st.Max {
				st.Max = f
			}
		}
		if st.Numeric > 0 {
			n := float64(st.Numeric)
			st.Mean = sum / n
			variance := sumSq/n - st.Mean*st.Mean
			if variance < 0 {
				variance = 0
			}
			st.Std = math.Sqrt(variance)
		} else {
			st.Min, st.Max = 0, 0
		}
		out = append(out, st)
	}
	return out
}
