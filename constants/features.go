package constants

// Derived numeric columns produced by the feature deriver, in the fixed order
// they are appended to the parsed table.
const (
	FeatTotalLatePayments     = "Total_Late_Payments"
	FeatNbServiceInteractions = "Nb_ServiceInteractions"
	FeatNbLogins              = "Nb_Logins"
	FeatAvgLoginsPerMonth     = "AvgLoginsPerMonth"
	FeatFeedbackScore         = "Feedback_Score"
	FeatNbPageViews           = "Nb_PageViews"
	FeatAvgSessionDuration    = "AvgSessionDuration"
	FeatEmailOpenRate         = "EmailOpenRate"
	FeatResponseRate          = "ResponseRate"
	FeatPurchaseFrequency     = "PurchaseFrequency"
	FeatAvgTransactionAmount  = "AvgTransactionAmount"
	FeatSubscriptionDuration  = "SubscriptionDuration"
	FeatBounceRate            = "BounceRate"
)

// DerivedColumns is the documented order of the columns added during feature
// derivation. Downstream stages address them by name.
var DerivedColumns = []string{
	FeatTotalLatePayments,
	FeatNbServiceInteractions,
	FeatNbLogins,
	FeatAvgLoginsPerMonth,
	FeatFeedbackScore,
	FeatNbPageViews,
	FeatAvgSessionDuration,
	FeatEmailOpenRate,
	FeatResponseRate,
	FeatPurchaseFrequency,
	FeatAvgTransactionAmount,
	FeatSubscriptionDuration,
	FeatBounceRate,
}

// NumericalFeatures are the 14 columns the frozen scaler was fitted on.
var NumericalFeatures = []string{
	"Age",
	"NPS",
	FeatTotalLatePayments,
	FeatNbServiceInteractions,
	FeatAvgLoginsPerMonth,
	FeatFeedbackScore,
	FeatNbPageViews,
	FeatSubscriptionDuration,
	FeatPurchaseFrequency,
	FeatAvgTransactionAmount,
	FeatEmailOpenRate,
	FeatResponseRate,
	FeatAvgSessionDuration,
	FeatBounceRate,
}

// ModelFeatures is the default ordered list of the 7 features the classifier
// was trained on. The authoritative copy ships with the model artifacts; this
// one backs tests and documentation.
var ModelFeatures = []string{
	FeatTotalLatePayments,
	FeatNbServiceInteractions,
	"NPS",
	FeatAvgLoginsPerMonth,
	FeatNbPageViews,
	FeatFeedbackScore,
	FeatEmailOpenRate,
}

// CategoricalVocabulary maps each categorical column to its closed, versioned
// set of known values. The indicator column set is derived from this and is
// fixed regardless of input contents.
var CategoricalVocabulary = map[string][]string{
	"Gender":  {"Male", "Female"},
	"Segment": {"A", "B", "C"},
}

// CategoricalColumns lists the encodable columns in a stable order (map
// iteration order is not).
var CategoricalColumns = []string{"Gender", "Segment"}

// Scored output columns.
const (
	ColumnPrediction  = "Prediction"
	ColumnProbability = "Probability_Churn"
	ColumnRiskLevel   = "Risk_Level"
)
