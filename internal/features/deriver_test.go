package features

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/table"
)

func rawRow(id string, overrides map[constants.FieldName]table.Value) []table.Value {
	payloads := map[constants.FieldName]table.Value{
		constants.PaymentHistory:         `[{"Late_Payments": 2}, {"Late_Payments": 0}]`,
		constants.ServiceInteractions:    `[{"Type": "Complaint"}, {"Type": "Question"}]`,
		constants.EngagementMetrics:      `{"Logins": 20, "Frequency": "Weekly"}`,
		constants.Feedback:               `{"Rating": 4}`,
		constants.WebsiteUsage:           `{"PageViews": 120, "TimeSpent(minutes)": 300}`,
		constants.MarketingCommunication: `[{"Email_Opened": "Yes", "Responded": "No"}]`,
		constants.PurchaseHistory:        `[{"Amount": 50, "Date": "2024-01-05"}, {"Amount": 70, "Date": "2024-03-10"}]`,
		constants.ClickstreamData:        `[{"Action": "Click"}, {"Action": "Scroll"}]`,
	}
	for f, v := range overrides {
		payloads[f] = v
	}
	row := []table.Value{id, "34", "Male", "A", "8"}
	for _, f := range constants.Fields() {
		row = append(row, payloads[f])
	}
	return row
}

func rawTable(t *testing.T, rows ...[]table.Value) *table.Table {
	t.Helper()
	cols := []string{constants.ColumnCustomerID, "Age", "Gender", "Segment", "NPS"}
	cols = append(cols, constants.FieldsAsStrings()...)
	tbl, err := table.New(cols)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

func TestDeriveReplacesRawFieldsWithDerivedColumns(t *testing.T) {
	d := NewDeriver(2, nil)
	out, report, err := d.Derive(context.Background(), rawTable(t, rawRow("C1", nil)))
	require.NoError(t, err)
	require.Equal(t, 1, report.Rows)
	assert.Empty(t, report.Fallbacks)

	want := append([]string{constants.ColumnCustomerID, "Age", "Gender", "Segment", "NPS"}, constants.DerivedColumns...)
	assert.Equal(t, want, out.Columns())
	for _, f := range constants.FieldsAsStrings() {
		assert.False(t, out.HasColumn(f), "raw field %s should be dropped", f)
	}

	get := func(col string) float64 {
		v, ok := out.At(0, col)
		require.True(t, ok)
		f, ok := table.Float(v)
		require.True(t, ok, "column %s not numeric: %v", col, v)
		return f
	}
	assert.Equal(t, 2.0, get(constants.FeatTotalLatePayments))
	assert.Equal(t, 2.0, get(constants.FeatNbServiceInteractions))
	assert.Equal(t, 20.0, get(constants.FeatNbLogins))
	assert.Equal(t, 5.0, get(constants.FeatAvgLoginsPerMonth))
	assert.Equal(t, 4.0, get(constants.FeatFeedbackScore))
	assert.Equal(t, 120.0, get(constants.FeatNbPageViews))
	assert.Equal(t, 100.0, get(constants.FeatEmailOpenRate))
	assert.Equal(t, 0.0, get(constants.FeatResponseRate))
	assert.Equal(t, 60.0, get(constants.FeatAvgTransactionAmount))
	assert.Equal(t, 50.0, get(constants.FeatBounceRate))
}

func TestDeriveCountsFallbacksPerField(t *testing.T) {
	rows := [][]table.Value{
		rawRow("C1", map[constants.FieldName]table.Value{
			constants.Feedback:       nil,
			constants.PaymentHistory: "not json",
		}),
		rawRow("C2", map[constants.FieldName]table.Value{
			constants.Feedback: `{"unexpected": true}`,
		}),
		rawRow("C3", nil),
	}
	d := NewDeriver(0, nil)
	out, report, err := d.Derive(context.Background(), rawTable(t, rows...))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fallbacks[constants.Feedback])
	assert.Equal(t, 1, report.Fallbacks[constants.PaymentHistory])
	assert.Zero(t, report.Fallbacks[constants.WebsiteUsage])

	// Fallback rows still produce the neutral defaults.
	v, ok := out.At(0, constants.FeatFeedbackScore)
	require.True(t, ok)
	assert.Equal(t, constants.DefaultFeedbackScore, v)
	v, ok = out.At(0, constants.FeatTotalLatePayments)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestDeriveIsDeterministicAcrossWorkerCounts(t *testing.T) {
	rows := make([][]table.Value, 0, 17)
	for i := 0; i < 17; i++ {
		rows = append(rows, rawRow("C"+string(rune('A'+i)), nil))
	}
	serial, _, err := NewDeriver(1, nil).Derive(context.Background(), rawTable(t, rows...))
	require.NoError(t, err)
	parallel, _, err := NewDeriver(8, nil).Derive(context.Background(), rawTable(t, rows...))
	require.NoError(t, err)

	require.Equal(t, serial.Columns(), parallel.Columns())
	require.Equal(t, serial.NumRows(), parallel.NumRows())
	for r := 0; r < serial.NumRows(); r++ {
		assert.Equal(t, serial.Row(r), parallel.Row(r))
	}
}

func TestDeriveRejectsEmptyAndDuplicateInputs(t *testing.T) {
	d := NewDeriver(1, nil)
	_, _, err := d.Derive(context.Background(), nil)
	assert.Error(t, err)

	empty := rawTable(t)
	_, _, err = d.Derive(context.Background(), empty)
	assert.Error(t, err)

	already, err := rawTable(t, rawRow("C1", nil)).AppendColumn(constants.FeatNbLogins, []table.Value{1.0})
	require.NoError(t, err)
	_, _, err = d.Derive(context.Background(), already)
	assert.Error(t, err)
}
