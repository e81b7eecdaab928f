package constants

// FieldName identifies one of the semi-structured raw columns that carry a
// JSON-encoded payload per customer.
type FieldName string

const (
	PaymentHistory         FieldName = "PaymentHistory"
	ServiceInteractions    FieldName = "ServiceInteractions"
	EngagementMetrics      FieldName = "EngagementMetrics"
	Feedback               FieldName = "Feedback"
	WebsiteUsage           FieldName = "WebsiteUsage"
	MarketingCommunication FieldName = "MarketingCommunication"
	PurchaseHistory        FieldName = "PurchaseHistory"
	ClickstreamData        FieldName = "ClickstreamData"
)

var allFields = []FieldName{
	PaymentHistory,
	ServiceInteractions,
	EngagementMetrics,
	Feedback,
	WebsiteUsage,
	MarketingCommunication,
	PurchaseHistory,
	ClickstreamData,
}

// Fields returns the eight semi-structured field names in their canonical order.
func Fields() []FieldName {
	out := make([]FieldName, len(allFields))
	copy(out, allFields)
	return out
}

// FieldsAsStrings returns the field names as plain strings, for schema contracts.
func FieldsAsStrings() []string {
	out := make([]string, len(allFields))
	for i, f := range allFields {
		out[i] = string(f)
	}
	return out
}

// ColumnCustomerID is the unique, non-null row identifier.
const ColumnCustomerID = "CustomerID"

// ColumnChurnLabel is the optional ground-truth label column; it is never fed
// to the classifier but, when present, enables accuracy reporting.
const ColumnChurnLabel = "ChurnLabel"

// RawRequiredColumns are the columns a raw input table must carry.
var RawRequiredColumns = []string{
	ColumnCustomerID,
	"Age",
	"Gender",
	"Segment",
	"NPS",
	string(PaymentHistory),
	string(ServiceInteractions),
	string(EngagementMetrics),
	string(Feedback),
	string(WebsiteUsage),
	string(MarketingCommunication),
	string(PurchaseHistory),
	string(ClickstreamData),
}

// IdentityColumns are carried through to the scored output for reporting but
// never enter the model input.
var IdentityColumns = []string{ColumnCustomerID, "Name", "Email", "Phone", "Address"}

// FrequencyMonthlyRate converts an engagement frequency label into the number
// of login opportunities per month.
var FrequencyMonthlyRate = map[string]float64{
	"Daily":   30,
	"Weekly":  4,
	"Monthly": 1,
	"Rarely":  0.25,
}

// DefaultEngagementFrequency is assumed when the engagement payload omits or
// mangles the frequency label.
const DefaultEngagementFrequency = "Monthly"

// DefaultFeedbackScore is the neutral midpoint of the 1-5 rating scale, used
// when the feedback payload is absent or malformed.
const DefaultFeedbackScore = 3.0
