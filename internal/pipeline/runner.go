// Package pipeline chains the preprocessing stages into one batch run:
// raw -> validated -> feature-derived -> encoded -> scaled -> model input ->
// scored. Every stage output is kept as a named snapshot on the run result so
// boundary artifacts stay independently inspectable and exportable.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/artifacts"
	"github.com/churnscope/churnscope/internal/common"
	"github.com/churnscope/churnscope/internal/encode"
	"github.com/churnscope/churnscope/internal/features"
	"github.com/churnscope/churnscope/internal/schema"
	"github.com/churnscope/churnscope/internal/score"
	"github.com/churnscope/churnscope/internal/selector"
	"github.com/churnscope/churnscope/internal/table"
)

// Snapshot names, in pipeline order.
const (
	SnapshotRaw        = "raw"
	SnapshotParsed     = "parsed"
	SnapshotEncoded    = "encoded"
	SnapshotNormalized = "normalized"
	SnapshotModelInput = "model_input"
	SnapshotScored     = "scored"
)

// SnapshotNames returns the snapshot names in pipeline order.
func SnapshotNames() []string {
	return []string{
		SnapshotRaw, SnapshotParsed, SnapshotEncoded,
		SnapshotNormalized, SnapshotModelInput, SnapshotScored,
	}
}

// Snapshot is one immutable stage output, owned by the run that produced it.
type Snapshot struct {
	Name      string
	Table     *table.Table
	CreatedAt time.Time
}

// Result is everything a run produced: the ordered snapshots, per-row
// predictions and run-level observability counters.
type Result struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Snapshots  []Snapshot

	Predictions []score.Prediction
	Summary     score.Summary

	// Recovered conditions, for observability.
	FieldFallbacks map[constants.FieldName]int
	OutOfVocab     map[string]int
	Warnings       []schema.Violation
}

// Snapshot returns a stage output by name.
func (r *Result) Snapshot(name string) (*table.Table, bool) {
	for _, s := range r.Snapshots {
		if s.Name == name {
			return s.Table, true
		}
	}
	return nil, false
}

// Runner executes pipeline runs against one frozen artifact bundle. The
// bundle is loaded once at startup and passed in explicitly; the runner keeps
// no mutable state between runs.
type Runner struct {
	bundle  *artifacts.Bundle
	deriver *features.Deriver
	encoder *encode.Encoder
	engine  *score.Engine
	logger  *slog.Logger
}

// NewRunner wires the stages around a loaded artifact bundle.
func NewRunner(bundle *artifacts.Bundle, cfg *common.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	engine, err := score.NewEngine(bundle.Classifier,
		cfg.Scoring.RiskLowThreshold, cfg.Scoring.RiskHighThreshold, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		bundle:  bundle,
		deriver: features.NewDeriver(cfg.Pipeline.ExtractWorkers, logger),
		encoder: encode.NewEncoder(logger),
		engine:  engine,
		logger:  logger,
	}, nil
}

// Run executes the full pipeline over a raw table. Structural failures abort
// with a stage-tagged error; recovered conditions land in the result.
func (p *Runner) Run(ctx context.Context, raw *table.Table) (*Result, error) {
	runID := uuid.New()
	ctx = common.WithRunID(ctx, runID.String())
	logger := p.logger.With("run_id", runID.String())
	start := time.Now()

	res := &Result{RunID: runID, StartedAt: start}

	// Boundary 1: post-load.
	if err := p.check(res, raw, schema.RawContract()); err != nil {
		return nil, err
	}
	res.addSnapshot(SnapshotRaw, raw)

	// Feature derivation, then boundary 2: post-extraction.
	parsed, report, err := p.deriver.Derive(ctx, raw)
	if err != nil {
		return nil, common.WrapError(err, "pipeline: derive")
	}
	res.FieldFallbacks = report.Fallbacks
	if err := p.check(res, parsed, schema.ParsedContract()); err != nil {
		return nil, err
	}
	res.addSnapshot(SnapshotParsed, parsed)

	encoded, encReport, err := p.encoder.Encode(parsed)
	if err != nil {
		return nil, common.WrapError(err, "pipeline: encode")
	}
	res.OutOfVocab = encReport.OutOfVocab
	res.addSnapshot(SnapshotEncoded, encoded)

	// Scaling, then boundary 3: post-scaling.
	normalized, err := p.bundle.Scaler.Normalize(encoded)
	if err != nil {
		return nil, &common.StructuralError{Stage: "normalize", Rule: "scaler contract", Detail: "see cause", Cause: err}
	}
	if err := p.check(res, normalized, schema.NormalizedContract(p.bundle.Scaler.Columns())); err != nil {
		return nil, err
	}
	res.addSnapshot(SnapshotNormalized, normalized)

	// Projection, then boundary 4: pre-scoring.
	modelInput, err := selector.Select(normalized, p.bundle.Features)
	if err != nil {
		return nil, err
	}
	if err := p.check(res, modelInput, schema.ModelInputContract(p.bundle.Features)); err != nil {
		return nil, err
	}
	res.addSnapshot(SnapshotModelInput, modelInput)

	preds, err := p.engine.Score(modelInput)
	if err != nil {
		return nil, err
	}
	res.Predictions = preds
	res.Summary = score.Summarize(preds)
	if labels, ok := parsed.Column(constants.ColumnChurnLabel); ok {
		if acc, ok := score.Accuracy(preds, labels); ok {
			res.Summary.AccuracyPercent = &acc
		}
	}

	// The scored table keeps the identifying columns from the parsed stage
	// so exports are readable.
	scored, err := score.Attach(parsed, preds)
	if err != nil {
		return nil, common.WrapError(err, "pipeline: attach predictions")
	}
	res.addSnapshot(SnapshotScored, scored)

	res.FinishedAt = time.Now()
	logger.Info("pipeline.run.ok",
		"rows", raw.NumRows(),
		"churn_predicted", res.Summary.ChurnPredicted,
		"avg_probability", res.Summary.AvgProbability,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Runner) check(res *Result, t *table.Table, contract schema.Contract) error {
	result, err := schema.Validate(t, contract)
	if err != nil {
		return err
	}
	res.Warnings = append(res.Warnings, result.Warnings...)
	for _, w := range result.Warnings {
		p.logger.Warn("pipeline.validate.warning", "stage", contract.Stage, "column", w.Column, "rule", w.Rule)
	}
	if !result.Valid {
		return result.Err()
	}
	p.logger.Debug("pipeline.validate.ok", "stage", contract.Stage)
	return nil
}

func (r *Result) addSnapshot(name string, t *table.Table) {
	r.Snapshots = append(r.Snapshots, Snapshot{Name: name, Table: t, CreatedAt: time.Now()})
}
