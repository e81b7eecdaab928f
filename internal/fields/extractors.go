// Package fields holds the eight per-field extractors. Each one is a pure
// function of a single cell: it decodes the semi-structured payload and
// produces a fixed set of named scalars. Absent or malformed payloads yield
// documented defaults and a fallback flag; extractors never fail a run.
package fields

import (
	"math"
	"time"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/table"
)

// Extraction is the result of one extractor on one cell.
type Extraction struct {
	Values map[string]float64
	// Fallback reports that the payload was absent or malformed and the
	// defaults were used. Recorded for observability, never blocking.
	Fallback bool
}

// Func extracts derived scalars from one cell.
type Func func(cell table.Value) Extraction

// Registry maps each semi-structured field to its extractor. The set of
// extractors is closed; per-field behavior is a function, not a hierarchy.
func Registry() map[constants.FieldName]Func {
	return map[constants.FieldName]Func{
		constants.PaymentHistory:         ExtractPaymentHistory,
		constants.ServiceInteractions:    ExtractServiceInteractions,
		constants.EngagementMetrics:      ExtractEngagementMetrics,
		constants.Feedback:               ExtractFeedback,
		constants.WebsiteUsage:           ExtractWebsiteUsage,
		constants.MarketingCommunication: ExtractMarketingCommunication,
		constants.PurchaseHistory:        ExtractPurchaseHistory,
		constants.ClickstreamData:        ExtractClickstream,
	}
}

// Outputs lists the derived columns an extractor produces, in their
// documented order.
func Outputs(field constants.FieldName) []string {
	switch field {
	case constants.PaymentHistory:
		return []string{constants.FeatTotalLatePayments}
	case constants.ServiceInteractions:
		return []string{constants.FeatNbServiceInteractions}
	case constants.EngagementMetrics:
		return []string{constants.FeatNbLogins, constants.FeatAvgLoginsPerMonth}
	case constants.Feedback:
		return []string{constants.FeatFeedbackScore}
	case constants.WebsiteUsage:
		return []string{constants.FeatNbPageViews, constants.FeatAvgSessionDuration}
	case constants.MarketingCommunication:
		return []string{constants.FeatEmailOpenRate, constants.FeatResponseRate}
	case constants.PurchaseHistory:
		return []string{constants.FeatPurchaseFrequency, constants.FeatAvgTransactionAmount, constants.FeatSubscriptionDuration}
	case constants.ClickstreamData:
		return []string{constants.FeatBounceRate}
	default:
		return nil
	}
}

func fallback(values map[string]float64) Extraction {
	return Extraction{Values: values, Fallback: true}
}

// ExtractPaymentHistory counts late-payment events: per installment, an
// aggregate Late_Payments count when the record carries one, otherwise one
// event when Days_Late > 0 or the Late flag is set.
func ExtractPaymentHistory(cell table.Value) Extraction {
	def := map[string]float64{constants.FeatTotalLatePayments: 0}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.PaymentHistory, v) {
		return fallback(def)
	}
	records, ok := asArray(v)
	if !ok {
		return fallback(def)
	}
	var late float64
	for _, rec := range records {
		m, ok := asObject(rec)
		if !ok {
			continue
		}
		if count, ok := num(m, "Late_Payments"); ok {
			late += count
			continue
		}
		if days, ok := num(m, "Days_Late", "days_late"); ok && days > 0 {
			late++
			continue
		}
		if yes(m, "Late") {
			late++
		}
	}
	return Extraction{Values: map[string]float64{constants.FeatTotalLatePayments: late}}
}

// ExtractServiceInteractions counts recorded interactions. An empty list is a
// legitimate zero, not a fallback.
func ExtractServiceInteractions(cell table.Value) Extraction {
	def := map[string]float64{constants.FeatNbServiceInteractions: 0}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.ServiceInteractions, v) {
		return fallback(def)
	}
	records, ok := asArray(v)
	if !ok {
		return fallback(def)
	}
	return Extraction{Values: map[string]float64{
		constants.FeatNbServiceInteractions: float64(len(records)),
	}}
}

// ExtractEngagementMetrics reads the login count and converts the engagement
// frequency label into average logins per month.
func ExtractEngagementMetrics(cell table.Value) Extraction {
	def := map[string]float64{
		constants.FeatNbLogins:          0,
		constants.FeatAvgLoginsPerMonth: 0,
	}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.EngagementMetrics, v) {
		return fallback(def)
	}
	m, ok := asObject(v)
	if !ok {
		return fallback(def)
	}
	logins, _ := num(m, "Logins")
	frequency, ok := str(m, "Frequency")
	if !ok {
		frequency = constants.DefaultEngagementFrequency
	}
	rate, ok := constants.FrequencyMonthlyRate[frequency]
	if !ok {
		rate = constants.FrequencyMonthlyRate[constants.DefaultEngagementFrequency]
	}
	avg := 0.0
	if rate > 0 {
		avg = round2(logins / rate)
	}
	return Extraction{Values: map[string]float64{
		constants.FeatNbLogins:          logins,
		constants.FeatAvgLoginsPerMonth: avg,
	}}
}

// ExtractFeedback reads the satisfaction rating. An array of feedback entries
// averages the ratings. Missing ratings use the neutral midpoint default.
func ExtractFeedback(cell table.Value) Extraction {
	def := map[string]float64{constants.FeatFeedbackScore: constants.DefaultFeedbackScore}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.Feedback, v) {
		return fallback(def)
	}
	if m, ok := asObject(v); ok {
		if rating, ok := num(m, "Rating"); ok {
			return Extraction{Values: map[string]float64{constants.FeatFeedbackScore: rating}}
		}
		return fallback(def)
	}
	if records, ok := asArray(v); ok {
		var sum float64
		var n int
		for _, rec := range records {
			if m, ok := asObject(rec); ok {
				if rating, ok := num(m, "Rating"); ok {
					sum += rating
					n++
				}
			}
		}
		if n > 0 {
			return Extraction{Values: map[string]float64{constants.FeatFeedbackScore: round2(sum / float64(n))}}
		}
	}
	return fallback(def)
}

// ExtractWebsiteUsage reads page views and the recorded time on site, which
// stands in for the average session duration.
func ExtractWebsiteUsage(cell table.Value) Extraction {
	def := map[string]float64{
		constants.FeatNbPageViews:        0,
		constants.FeatAvgSessionDuration: 0,
	}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.WebsiteUsage, v) {
		return fallback(def)
	}
	m, ok := asObject(v)
	if !ok {
		return fallback(def)
	}
	views, _ := num(m, "PageViews")
	duration, _ := num(m, "TimeSpent(minutes)", "TimeSpentMinutes")
	return Extraction{Values: map[string]float64{
		constants.FeatNbPageViews:        views,
		constants.FeatAvgSessionDuration: duration,
	}}
}

// ExtractMarketingCommunication computes email open and response rates as
// event-count / opportunity-count * 100. Zero opportunities means zero, not a
// division failure.
func ExtractMarketingCommunication(cell table.Value) Extraction {
	def := map[string]float64{
		constants.FeatEmailOpenRate: 0,
		constants.FeatResponseRate:  0,
	}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.MarketingCommunication, v) {
		return fallback(def)
	}
	records, ok := asArray(v)
	if !ok {
		return fallback(def)
	}
	total := len(records)
	if total == 0 {
		return Extraction{Values: def}
	}
	var opened, responded int
	for _, rec := range records {
		m, ok := asObject(rec)
		if !ok {
			continue
		}
		if yes(m, "EmailOpened", "Email_Opened") {
			opened++
		}
		if yes(m, "Responded") {
			responded++
		}
	}
	return Extraction{Values: map[string]float64{
		constants.FeatEmailOpenRate: clampPct(round2(float64(opened) / float64(total) * 100)),
		constants.FeatResponseRate:  clampPct(round2(float64(responded) / float64(total) * 100)),
	}}
}

var purchaseDateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// ExtractPurchaseHistory derives purchase frequency, average transaction
// amount and a subscription-duration estimate from the dated transaction
// list. Duration is the whole-month span between the first and last dated
// purchase, at least one month when any purchase exists; frequency is
// purchases per month over that span. Negative amounts are refunds and stay
// in the average.
func ExtractPurchaseHistory(cell table.Value) Extraction {
	def := map[string]float64{
		constants.FeatPurchaseFrequency:    0,
		constants.FeatAvgTransactionAmount: 0,
		constants.FeatSubscriptionDuration: 0,
	}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.PurchaseHistory, v) {
		return fallback(def)
	}
	records, ok := asArray(v)
	if !ok {
		return fallback(def)
	}
	if len(records) == 0 {
		return Extraction{Values: def}
	}

	var amountSum float64
	var amountN int
	var first, last time.Time
	for _, rec := range records {
		m, ok := asObject(rec)
		if !ok {
			continue
		}
		if amount, ok := num(m, "Amount", "amount"); ok {
			amountSum += amount
			amountN++
		}
		if raw, ok := str(m, "Date", "date", "Purchase_Date"); ok {
			if ts, ok := parseDate(raw); ok {
				if first.IsZero() || ts.Before(first) {
					first = ts
				}
				if last.IsZero() || ts.After(last) {
					last = ts
				}
			}
		}
	}

	months := 1.0
	if !first.IsZero() {
		months = float64(int(last.Sub(first).Hours()/24/30)) + 1
	}
	avg := 0.0
	if amountN > 0 {
		avg = round2(amountSum / float64(amountN))
	}
	return Extraction{Values: map[string]float64{
		constants.FeatPurchaseFrequency:    round2(float64(len(records)) / months),
		constants.FeatAvgTransactionAmount: avg,
		constants.FeatSubscriptionDuration: months,
	}}
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range purchaseDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ExtractClickstream computes the bounce rate from session click records,
// kept distinct from the website-usage columns.
func ExtractClickstream(cell table.Value) Extraction {
	def := map[string]float64{constants.FeatBounceRate: 0}
	v, ok := decodeCell(cell)
	if !ok || !conforms(constants.ClickstreamData, v) {
		return fallback(def)
	}
	records, ok := asArray(v)
	if !ok {
		return fallback(def)
	}
	total := len(records)
	if total == 0 {
		return Extraction{Values: def}
	}
	clicks := 0
	for _, rec := range records {
		if m, ok := asObject(rec); ok {
			if action, ok := str(m, "Action"); ok && action == "Click" {
				clicks++
			}
		}
	}
	return Extraction{Values: map[string]float64{
		constants.FeatBounceRate: clampPct(round2(float64(clicks) / float64(total) * 100)),
	}}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func clampPct(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}
