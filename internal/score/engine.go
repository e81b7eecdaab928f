// Package score applies the frozen classifier to a model-input table and
// buckets each probability into a discrete churn-risk tier. Scoring is
// stateless: identical input and artifacts produce identical output.
package score

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/common"
	"github.com/churnscope/churnscope/internal/model"
	"github.com/churnscope/churnscope/internal/table"
)

// Prediction is the classifier output for one row.
type Prediction struct {
	Probability float64
	Label       int
	Risk        constants.RiskLevel
}

// Engine scores model-input tables.
type Engine struct {
	classifier model.Classifier
	low        float64
	high       float64
	logger     *slog.Logger
}

// NewEngine builds a scoring engine with the given bucketing thresholds.
func NewEngine(classifier model.Classifier, low, high float64, logger *slog.Logger) (*Engine, error) {
	if classifier == nil {
		return nil, fmt.Errorf("score: nil classifier")
	}
	if low < 0 || high > 1 || low > high {
		return nil, fmt.Errorf("score: thresholds must satisfy 0 <= low <= high <= 1, got %v/%v", low, high)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{classifier: classifier, low: low, high: high, logger: logger}, nil
}

// Bucket maps a probability to its risk tier. Boundary values are inclusive
// toward Medium.
func Bucket(p, low, high float64) constants.RiskLevel {
	switch {
	case p < low:
		return constants.RiskLow
	case p > high:
		return constants.RiskHigh
	default:
		return constants.RiskMedium
	}
}

// Score runs the classifier over every row. The table must already be the
// exact ordered model input; a classifier failure on a well-formed vector is
// an artifact defect and aborts.
func (e *Engine) Score(t *table.Table) ([]Prediction, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, common.NewStructuralError("score", "empty table", "input has no rows")
	}
	if t.NumCols() != e.classifier.NumFeatures() {
		return nil, common.NewStructuralErrorf("score", "width mismatch",
			"table has %d columns, classifier expects %d", t.NumCols(), e.classifier.NumFeatures())
	}

	preds := make([]Prediction, t.NumRows())
	vector := make([]float64, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		row := t.Row(r)
		for j, cell := range row {
			f, ok := table.Float(cell)
			if !ok {
				return nil, common.NewStructuralErrorf("score", "non-numeric cell",
					"row %d column %d holds %v", r, j, cell)
			}
			vector[j] = f
		}
		p, err := e.classifier.PredictProba(vector)
		if err != nil {
			return nil, &common.StructuralError{Stage: "score", Rule: "classifier failure",
				Detail: fmt.Sprintf("row %d", r), Cause: err}
		}
		if p < 0 || p > 1 {
			return nil, common.NewStructuralErrorf("score", "probability out of range",
				"row %d scored %v", r, p)
		}
		label := 0
		if p >= 0.5 {
			label = 1
		}
		preds[r] = Prediction{Probability: p, Label: label, Risk: Bucket(p, e.low, e.high)}
	}
	e.logger.Info("score.ok", "rows", len(preds))
	return preds, nil
}

// Attach appends Prediction, Probability_Churn and Risk_Level columns to any
// table with the same row count, typically the identity-bearing parsed table.
func Attach(t *table.Table, preds []Prediction) (*table.Table, error) {
	if t.NumRows() != len(preds) {
		return nil, fmt.Errorf("score: %d predictions for %d rows", len(preds), t.NumRows())
	}
	labels := make([]table.Value, len(preds))
	probs := make([]table.Value, len(preds))
	risks := make([]table.Value, len(preds))
	for i, p := range preds {
		labels[i] = p.Label
		probs[i] = p.Probability
		risks[i] = string(p.Risk)
	}
	out, err := t.AppendColumn(constants.ColumnPrediction, labels)
	if err != nil {
		return nil, err
	}
	if out, err = out.AppendColumn(constants.ColumnProbability, probs); err != nil {
		return nil, err
	}
	if out, err = out.AppendColumn(constants.ColumnRiskLevel, risks); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary aggregates one scoring run.
type Summary struct {
	TotalCustomers  int
	ChurnPredicted  int
	ChurnRate       float64
	AvgProbability  float64
	TierCounts      map[constants.RiskLevel]int
	AccuracyPercent *float64
}

// Summarize computes run-level statistics from per-row predictions.
func Summarize(preds []Prediction) Summary {
	s := Summary{
		TotalCustomers: len(preds),
		TierCounts: map[constants.RiskLevel]int{
			constants.RiskLow: 0, constants.RiskMedium: 0, constants.RiskHigh: 0,
		},
	}
	if len(preds) == 0 {
		return s
	}
	var probSum float64
	for _, p := range preds {
		probSum += p.Probability
		s.ChurnPredicted += p.Label
		s.TierCounts[p.Risk]++
	}
	s.ChurnRate = float64(s.ChurnPredicted) / float64(len(preds)) * 100
	s.AvgProbability = probSum / float64(len(preds))
	return s
}

// Accuracy compares predictions with a ground-truth label column when one is
// present. Cells that cannot be read as 0/1 are skipped.
func Accuracy(preds []Prediction, labels []table.Value) (float64, bool) {
	if len(labels) != len(preds) {
		return 0, false
	}
	matched, counted := 0, 0
	for i, cell := range labels {
		f, ok := table.Float(cell)
		if !ok {
			continue
		}
		counted++
		if int(f) == preds[i].Label {
			matched++
		}
	}
	if counted == 0 {
		return 0, false
	}
	return float64(matched) / float64(counted) * 100, true
}

// HighRisk returns the top-N predicted churners ordered by descending
// probability, from a table that carries the scored columns.
func HighRisk(t *table.Table, topN int) (*table.Table, error) {
	churners := t.Filter(func(row int) bool {
		v, _ := t.At(row, constants.ColumnPrediction)
		f, ok := table.Float(v)
		return ok && f >= 1
	})

	type ranked struct {
		row  int
		prob float64
	}
	rows := make([]ranked, churners.NumRows())
	for r := 0; r < churners.NumRows(); r++ {
		v, _ := churners.At(r, constants.ColumnProbability)
		f, _ := table.Float(v)
		rows[r] = ranked{row: r, prob: f}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].prob > rows[j].prob })
	if topN > 0 && topN < len(rows) {
		rows = rows[:topN]
	}

	out, err := table.New(churners.Columns())
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := out.AppendRow(churners.Row(r.row)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
