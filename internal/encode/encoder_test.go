package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churnscope/churnscope/internal/table"
)

func sample(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"CustomerID", "Gender", "Segment"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]table.Value{"C1", "Male", "A"}))
	require.NoError(t, tbl.AppendRow([]table.Value{"C2", "Female", "C"}))
	require.NoError(t, tbl.AppendRow([]table.Value{"C3", "Female", "D"}))
	return tbl
}

func floatAt(t *testing.T, tbl *table.Table, row int, col string) float64 {
	t.Helper()
	v, ok := tbl.At(row, col)
	require.True(t, ok)
	f, ok := table.Float(v)
	require.True(t, ok)
	return f
}

func TestEncodeExpandsVocabulary(t *testing.T) {
	enc := NewEncoder(nil)
	out, report, err := enc.Encode(sample(t))
	require.NoError(t, err)

	for _, name := range []string{"Gender_Male", "Gender_Female", "Segment_A", "Segment_B", "Segment_C"} {
		assert.True(t, out.HasColumn(name), "missing indicator %s", name)
	}
	assert.False(t, out.HasColumn("Gender"))
	assert.False(t, out.HasColumn("Segment"))
	assert.True(t, out.HasColumn("CustomerID"))

	assert.Equal(t, 1.0, floatAt(t, out, 0, "Gender_Male"))
	assert.Equal(t, 0.0, floatAt(t, out, 0, "Gender_Female"))
	assert.Equal(t, 1.0, floatAt(t, out, 1, "Segment_C"))
	assert.Equal(t, 0.0, floatAt(t, out, 1, "Segment_A"))

	assert.Equal(t, 1, report.OutOfVocab["Segment"])
	assert.Zero(t, report.OutOfVocab["Gender"])
}

func TestEncodeOutOfVocabularyIsAllZeros(t *testing.T) {
	enc := NewEncoder(nil)
	out, _, err := enc.Encode(sample(t))
	require.NoError(t, err)

	// Segment "D" is outside the closed vocabulary, so row 2 gets zero
	// indicators across every known segment.
	for _, name := range []string{"Segment_A", "Segment_B", "Segment_C"} {
		assert.Equal(t, 0.0, floatAt(t, out, 2, name))
	}
}

func TestEncodeIsIdempotent(t *testing.T) {
	enc := NewEncoder(nil)
	once, _, err := enc.Encode(sample(t))
	require.NoError(t, err)

	twice, report, err := enc.Encode(once)
	require.NoError(t, err)
	assert.Equal(t, once.Columns(), twice.Columns())
	assert.Empty(t, report.OutOfVocab)
}

func TestEncodeRejectsEmptyTable(t *testing.T) {
	enc := NewEncoder(nil)
	empty, err := table.New([]string{"Gender"})
	require.NoError(t, err)
	_, _, err = enc.Encode(empty)
	assert.Error(t, err)

	_, _, err = enc.Encode(nil)
	assert.Error(t, err)
}

func TestIndicatorName(t *testing.T) {
	assert.Equal(t, "Segment_B", IndicatorName("Segment", "B"))
}
