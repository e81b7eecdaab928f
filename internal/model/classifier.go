// Package model consumes the frozen binary classifier. Training is out of
// scope: a classifier is an opaque score(vector) -> probability function
// loaded from an artifact.
package model

import (
	"fmt"
	"math"
)

// Classifier scores one fixed-width feature vector.
type Classifier interface {
	// PredictProba returns the churn probability in [0,1] for a vector
	// whose order matches the frozen feature-name list.
	PredictProba(vector []float64) (float64, error)
	// NumFeatures is the expected vector width.
	NumFeatures() int
}

// LogisticRegression is the frozen linear model behind the default artifact.
type LogisticRegression struct {
	weights []float64
	bias    float64
}

// NewLogisticRegression builds a classifier from ordered coefficients.
func NewLogisticRegression(weights []float64, bias float64) (*LogisticRegression, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("logistic: no weights")
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return &LogisticRegression{weights: w, bias: bias}, nil
}

// NumFeatures returns the expected vector width.
func (m *LogisticRegression) NumFeatures() int { return len(m.weights) }

// PredictProba applies the sigmoid to the linear score.
func (m *LogisticRegression) PredictProba(vector []float64) (float64, error) {
	if len(vector) != len(m.weights) {
		return 0, fmt.Errorf("logistic: vector width %d, want %d", len(vector), len(m.weights))
	}
	sum := m.bias
	for j, v := range vector {
		sum += m.weights[j] * v
	}
	return Sigmoid(sum), nil
}

// Sigmoid maps a linear score into (0,1).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
