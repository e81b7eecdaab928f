// Package export renders run snapshots as delimited text, XLSX workbooks and
// plain-text reports. Every intermediate table of a run can be exported, not
// only the scored one.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/pipeline"
	"github.com/churnscope/churnscope/internal/score"
	"github.com/churnscope/churnscope/internal/table"
)

// Service produces export bytes from tables and run results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// TableCSV renders any snapshot as delimited text.
func (s *Service) TableCSV(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	s.logger.Info("export.csv.ok", "rows", t.NumRows(), "columns", t.NumCols())
	return buf.Bytes(), nil
}

// TableXLSX returns an XLSX workbook (as bytes) holding the table on one sheet.
func (s *Service) TableXLSX(t *table.Table, sheet string) ([]byte, error) {
	start := time.Now()
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := t.Columns()
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r := 0; r < t.NumRows(); r++ {
		row := t.Row(r)
		for i, v := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			_ = f.SetCellValue(sheet, cell, table.FormatValue(v))
		}
	}

	// Widen columns to roughly fit their headers.
	for i, h := range headers {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(h)) + 4
		if width < 12 {
			width = 12
		}
		_ = f.SetColWidth(sheet, name, name, width)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"sheet", sheet,
		"rows", t.NumRows(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ByRiskTier filters a scored table to one tier.
func (s *Service) ByRiskTier(scored *table.Table, tier constants.RiskLevel) *table.Table {
	return scored.Filter(func(row int) bool {
		v, _ := scored.At(row, constants.ColumnRiskLevel)
		str, ok := v.(string)
		return ok && str == string(tier)
	})
}

// RunReport renders a plain-text summary of a run: totals, tier distribution
// and the top customers at risk.
func (s *Service) RunReport(res *pipeline.Result, topN int) (string, error) {
	if topN <= 0 {
		topN = 5
	}
	scored, ok := res.Snapshot(pipeline.SnapshotScored)
	if !ok {
		return "", fmt.Errorf("export: run has no scored snapshot")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Churn Prediction Report\n")
	fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	fmt.Fprintf(&b, "Date: %s\n\n", res.FinishedAt.Format("2006-01-02 15:04"))

	sum := res.Summary
	fmt.Fprintf(&b, "## Overall\n\n")
	fmt.Fprintf(&b, "- Total customers: %d\n", sum.TotalCustomers)
	fmt.Fprintf(&b, "- Churn predicted: %d customers (%.1f%%)\n", sum.ChurnPredicted, sum.ChurnRate)
	fmt.Fprintf(&b, "- Average probability: %.3f\n", sum.AvgProbability)
	if sum.AccuracyPercent != nil {
		fmt.Fprintf(&b, "- Accuracy vs known labels: %.2f%%\n", *sum.AccuracyPercent)
	}

	fmt.Fprintf(&b, "\n## Risk distribution\n\n")
	for _, tier := range constants.RiskLevels() {
		fmt.Fprintf(&b, "- %s risk: %d customers\n", tier, sum.TierCounts[tier])
	}

	fmt.Fprintf(&b, "\n## Numeric profile\n\n")
	for _, st := range scored.Stats() {
		if st.Numeric == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: mean %.2f, std %.2f, min %.2f, max %.2f\n",
			st.Column, st.Mean, st.Std, st.Min, st.Max)
	}

	top, err := score.HighRisk(scored, topN)
	if err != nil {
		return "", fmt.Errorf("export: rank high risk: %w", err)
	}
	fmt.Fprintf(&b, "\n## Top %d customers at risk\n\n", topN)
	for r := 0; r < top.NumRows(); r++ {
		id, _ := top.At(r, constants.ColumnCustomerID)
		prob, _ := top.At(r, constants.ColumnProbability)
		p, _ := table.Float(prob)
		fmt.Fprintf(&b, "%d. Customer %s - probability %.2f%%\n", r+1, table.FormatValue(id), p*100)
	}

	return b.String(), nil
}
