package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, cols []string, rows ...[]Value) *Table {
	t.Helper()
	tbl, err := New(cols)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

func TestNewRejectsBadHeaders(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]string{"A", "A"})
	assert.Error(t, err)

	_, err = New([]string{"A", ""})
	assert.Error(t, err)
}

func TestAppendRowWidth(t *testing.T) {
	tbl := mustTable(t, []string{"A", "B"})
	assert.Error(t, tbl.AppendRow([]Value{1}))
	assert.NoError(t, tbl.AppendRow([]Value{1, 2}))
}

func TestSelectProjectsAndReorders(t *testing.T) {
	tbl := mustTable(t, []string{"A", "B", "C"},
		[]Value{1, 2, 3},
		[]Value{4, 5, 6},
	)

	got, err := tbl.Select([]string{"C", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, got.Columns())
	assert.Equal(t, []Value{3, 1}, got.Row(0))
	assert.Equal(t, []Value{6, 4}, got.Row(1))

	_, err = tbl.Select([]string{"A", "Z"})
	assert.Error(t, err)
}

func TestSelectFromPermutationIsStable(t *testing.T) {
	want := []string{"X", "Y", "Z"}
	permutations := [][]string{
		{"X", "Y", "Z"}, {"Z", "Y", "X"}, {"Y", "Z", "X"},
	}
	for _, perm := range permutations {
		tbl := mustTable(t, perm, []Value{1.0, 2.0, 3.0})
		got, err := tbl.Select(want)
		require.NoError(t, err)
		assert.Equal(t, want, got.Columns())
		for i, name := range want {
			orig, _ := tbl.At(0, name)
			sel := got.Row(0)[i]
			assert.Equal(t, orig, sel)
		}
	}
}

func TestAppendAndDropColumns(t *testing.T) {
	tbl := mustTable(t, []string{"A"}, []Value{"x"}, []Value{"y"})

	with, err := tbl.AppendColumn("B", []Value{1.0, 2.0})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, with.Columns())

	_, err = with.AppendColumn("B", []Value{0.0, 0.0})
	assert.Error(t, err, "duplicate column")

	_, err = with.AppendColumn("C", []Value{1.0})
	assert.Error(t, err, "short column")

	dropped := with.DropColumns("A", "NotThere")
	assert.Equal(t, []string{"B"}, dropped.Columns())
	assert.Equal(t, 2, dropped.NumRows())

	// The source table is untouched.
	assert.Equal(t, []string{"A", "B"}, with.Columns())
}

func TestFloatCoercion(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want float64
		ok   bool
	}{
		{"float", 1.5, 1.5, true},
		{"int", 3, 3, true},
		{"numeric string", " 42.5 ", 42.5, true},
		{"bool true", true, 1, true},
		{"nil", nil, 0, false},
		{"text", "abc", 0, false},
		{"empty string", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Float(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := mustTable(t, []string{"CustomerID", "Age", "Note"},
		[]Value{"C1", 34, "plain"},
		[]Value{"C2", 41.5, "with, comma"},
		[]Value{"C3", nil, nil},
	)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns(), got.Columns())
	assert.Equal(t, tbl.NumRows(), got.NumRows())

	age, _ := got.At(1, "Age")
	f, ok := Float(age)
	require.True(t, ok)
	assert.Equal(t, 41.5, f)

	note, _ := got.At(1, "Note")
	assert.Equal(t, "with, comma", note)

	empty, _ := got.At(2, "Age")
	assert.True(t, IsNull(empty))
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	tbl := mustTable(t, []string{"V", "Text"},
		[]Value{2.0, "a"},
		[]Value{4.0, "b"},
		[]Value{nil, "c"},
	)
	stats := tbl.Stats()
	require.Len(t, stats, 2)

	v := stats[0]
	assert.Equal(t, "V", v.Column)
	assert.Equal(t, 3.0, v.Mean)
	assert.Equal(t, 2.0, v.Min)
	assert.Equal(t, 4.0, v.Max)
	assert.Equal(t, 1, v.Missing)
	assert.Equal(t, 2, v.Numeric)
	assert.InDelta(t, 1.0, v.Std, 1e-9)
}
