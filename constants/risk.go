package constants

// RiskLevel is the discrete churn-risk tier derived from the predicted
// probability.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

var allRiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// RiskLevels returns the tiers from least to most severe.
func RiskLevels() []RiskLevel {
	out := make([]RiskLevel, len(allRiskLevels))
	copy(out, allRiskLevels)
	return out
}

// Default bucketing thresholds. Boundary values are inclusive toward Medium:
// p < low -> Low, low <= p <= high -> Medium, p > high -> High.
const (
	DefaultRiskLowThreshold  = 0.30
	DefaultRiskHighThreshold = 0.70
)
