package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/table"
)

func TestExtractPaymentHistory(t *testing.T) {
	tests := []struct {
		name         string
		cell         table.Value
		want         float64
		wantFallback bool
	}{
		{
			name: "days late marks one event per installment",
			cell: `[{"amount":100,"days_late":5},{"amount":50,"days_late":0}]`,
			want: 1,
		},
		{
			name: "aggregate late payment counts are summed",
			cell: `[{"Late_Payments":2},{"Late_Payments":1}]`,
			want: 3,
		},
		{
			name: "late flag counts without days",
			cell: `[{"Late":true},{"Late":false}]`,
			want: 1,
		},
		{
			name: "python literal payload",
			cell: `[{'Late_Payments': 1}, {'Late_Payments': 0}]`,
			want: 1,
		},
		{
			name: "empty list",
			cell: `[]`,
			want: 0,
		},
		{
			name:         "absent cell falls back",
			cell:         nil,
			want:         0,
			wantFallback: true,
		},
		{
			name:         "malformed payload falls back",
			cell:         `{{not valid`,
			want:         0,
			wantFallback: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPaymentHistory(tt.cell)
			assert.Equal(t, tt.want, got.Values[constants.FeatTotalLatePayments])
			assert.Equal(t, tt.wantFallback, got.Fallback)
		})
	}
}

func TestExtractServiceInteractions(t *testing.T) {
	tests := []struct {
		name         string
		cell         table.Value
		want         float64
		wantFallback bool
	}{
		{name: "counts records", cell: `[{"Type":"call"},{"Type":"chat"},{"Type":"email"}]`, want: 3},
		{name: "empty list is zero not fallback", cell: `[]`, want: 0},
		{name: "absent is zero with fallback", cell: nil, want: 0, wantFallback: true},
		{name: "object instead of list falls back", cell: `{"Type":"call"}`, want: 0, wantFallback: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractServiceInteractions(tt.cell)
			assert.Equal(t, tt.want, got.Values[constants.FeatNbServiceInteractions])
			assert.Equal(t, tt.wantFallback, got.Fallback)
		})
	}
}

func TestExtractEngagementMetrics(t *testing.T) {
	tests := []struct {
		name      string
		cell      table.Value
		wantLogin float64
		wantAvg   float64
	}{
		{name: "daily frequency", cell: `{"Logins":60,"Frequency":"Daily"}`, wantLogin: 60, wantAvg: 2},
		{name: "weekly frequency", cell: `{"Logins":10,"Frequency":"Weekly"}`, wantLogin: 10, wantAvg: 2.5},
		{name: "monthly is identity", cell: `{"Logins":7,"Frequency":"Monthly"}`, wantLogin: 7, wantAvg: 7},
		{name: "rarely scales up", cell: `{"Logins":1,"Frequency":"Rarely"}`, wantLogin: 1, wantAvg: 4},
		{name: "unknown frequency treated as monthly", cell: `{"Logins":3,"Frequency":"Sometimes"}`, wantLogin: 3, wantAvg: 3},
		{name: "missing frequency treated as monthly", cell: `{"Logins":3}`, wantLogin: 3, wantAvg: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEngagementMetrics(tt.cell)
			assert.False(t, got.Fallback)
			assert.Equal(t, tt.wantLogin, got.Values[constants.FeatNbLogins])
			assert.Equal(t, tt.wantAvg, got.Values[constants.FeatAvgLoginsPerMonth])
		})
	}

	t.Run("absent cell defaults to zero logins", func(t *testing.T) {
		got := ExtractEngagementMetrics(nil)
		assert.True(t, got.Fallback)
		assert.Equal(t, 0.0, got.Values[constants.FeatNbLogins])
		assert.Equal(t, 0.0, got.Values[constants.FeatAvgLoginsPerMonth])
	})
}

func TestExtractFeedback(t *testing.T) {
	tests := []struct {
		name         string
		cell         table.Value
		want         float64
		wantFallback bool
	}{
		{name: "direct rating", cell: `{"Rating":4,"Comment":"fine"}`, want: 4},
		{name: "mean of rating entries", cell: `[{"Rating":2},{"Rating":5}]`, want: 3.5},
		{name: "missing rating uses midpoint", cell: `{"Comment":"no score"}`, want: 3, wantFallback: true},
		{name: "absent uses midpoint", cell: nil, want: 3, wantFallback: true},
		{name: "python literal none comment", cell: `{'Rating': 5, 'Comment': None}`, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFeedback(tt.cell)
			assert.Equal(t, tt.want, got.Values[constants.FeatFeedbackScore])
			assert.Equal(t, tt.wantFallback, got.Fallback)
		})
	}
}

func TestExtractWebsiteUsage(t *testing.T) {
	got := ExtractWebsiteUsage(`{"PageViews":42,"TimeSpent(minutes)":13.5}`)
	require.False(t, got.Fallback)
	assert.Equal(t, 42.0, got.Values[constants.FeatNbPageViews])
	assert.Equal(t, 13.5, got.Values[constants.FeatAvgSessionDuration])

	got = ExtractWebsiteUsage(nil)
	assert.True(t, got.Fallback)
	assert.Equal(t, 0.0, got.Values[constants.FeatNbPageViews])
}

func TestExtractMarketingCommunication(t *testing.T) {
	tests := []struct {
		name         string
		cell         table.Value
		wantOpen     float64
		wantResponse float64
	}{
		{
			name:         "string flags",
			cell:         `[{"EmailOpened":"Yes","Responded":"No"},{"EmailOpened":"Yes","Responded":"Yes"},{"EmailOpened":"No","Responded":"No"}]`,
			wantOpen:     66.67,
			wantResponse: 33.33,
		},
		{
			name:         "boolean flag variant",
			cell:         `[{"Email_Opened":true},{"Email_Opened":false}]`,
			wantOpen:     50,
			wantResponse: 0,
		},
		{
			name: "zero opportunities means zero rates",
			cell: `[]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMarketingCommunication(tt.cell)
			assert.False(t, got.Fallback)
			assert.Equal(t, tt.wantOpen, got.Values[constants.FeatEmailOpenRate])
			assert.Equal(t, tt.wantResponse, got.Values[constants.FeatResponseRate])
		})
	}
}

func TestMarketingRatesStayWithinPercentBounds(t *testing.T) {
	cells := []string{
		`[{"EmailOpened":"Yes"},{"EmailOpened":"Yes"},{"EmailOpened":"Yes"}]`,
		`[{"Responded":"No"}]`,
		`[]`,
	}
	for _, cell := range cells {
		got := ExtractMarketingCommunication(cell)
		for name, v := range got.Values {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 100.0, name)
		}
	}
}

func TestExtractPurchaseHistory(t *testing.T) {
	t.Run("dated purchases derive span and frequency", func(t *testing.T) {
		got := ExtractPurchaseHistory(`[
			{"Amount":100,"Date":"2024-01-05"},
			{"Amount":50,"Date":"2024-03-10"},
			{"Amount":30,"Date":"2024-02-01"}
		]`)
		require.False(t, got.Fallback)
		// 65 days between first and last purchase -> 3 whole months.
		assert.Equal(t, 3.0, got.Values[constants.FeatSubscriptionDuration])
		assert.Equal(t, 1.0, got.Values[constants.FeatPurchaseFrequency])
		assert.Equal(t, 60.0, got.Values[constants.FeatAvgTransactionAmount])
	})

	t.Run("undated purchases fall back to one-month span", func(t *testing.T) {
		got := ExtractPurchaseHistory(`[{"Amount":20},{"Amount":40}]`)
		require.False(t, got.Fallback)
		assert.Equal(t, 1.0, got.Values[constants.FeatSubscriptionDuration])
		assert.Equal(t, 2.0, got.Values[constants.FeatPurchaseFrequency])
		assert.Equal(t, 30.0, got.Values[constants.FeatAvgTransactionAmount])
	})

	t.Run("refunds stay in the average", func(t *testing.T) {
		got := ExtractPurchaseHistory(`[{"Amount":100},{"Amount":-50}]`)
		assert.Equal(t, 25.0, got.Values[constants.FeatAvgTransactionAmount])
	})

	t.Run("empty list is all zeros without fallback", func(t *testing.T) {
		got := ExtractPurchaseHistory(`[]`)
		assert.False(t, got.Fallback)
		assert.Equal(t, 0.0, got.Values[constants.FeatPurchaseFrequency])
		assert.Equal(t, 0.0, got.Values[constants.FeatSubscriptionDuration])
	})
}

func TestExtractClickstream(t *testing.T) {
	got := ExtractClickstream(`[{"Action":"Click"},{"Action":"Scroll"},{"Action":"Click"},{"Action":"View"}]`)
	require.False(t, got.Fallback)
	assert.Equal(t, 50.0, got.Values[constants.FeatBounceRate])

	got = ExtractClickstream(`[]`)
	assert.Equal(t, 0.0, got.Values[constants.FeatBounceRate])

	got = ExtractClickstream("not structured")
	assert.True(t, got.Fallback)
}

func TestRegistryCoversEveryFieldWithDistinctOutputs(t *testing.T) {
	registry := Registry()
	seen := map[string]constants.FieldName{}
	var total int
	for _, field := range constants.Fields() {
		require.Contains(t, registry, field)
		outputs := Outputs(field)
		require.NotEmpty(t, outputs, field)
		for _, col := range outputs {
			owner, dup := seen[col]
			require.False(t, dup, "column %s produced by both %s and %s", col, owner, field)
			seen[col] = field
			total++
		}
	}
	assert.Equal(t, len(constants.DerivedColumns), total)
}
