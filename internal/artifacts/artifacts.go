// Package artifacts loads the frozen model bundle: classifier weights,
// scaler statistics and the ordered feature-name list. The three are
// versioned together; any inconsistency is fatal at load time, before a
// single row is processed.
package artifacts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/churnscope/churnscope/internal/common"
	"github.com/churnscope/churnscope/internal/model"
	"github.com/churnscope/churnscope/internal/scale"
)

// ClassifierSpec is the on-disk classifier artifact.
type ClassifierSpec struct {
	Type    string             `json:"type"`
	Version string             `json:"version"`
	Weights map[string]float64 `json:"weights"`
	Bias    float64            `json:"bias"`
}

// ScalerStats is the on-disk scaler artifact: per-column training-time
// statistics, parallel to Columns.
type ScalerStats struct {
	Columns []string  `json:"columns"`
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`
}

// Bundle is the loaded, cross-checked artifact set threaded explicitly into
// pipeline calls.
type Bundle struct {
	Classifier model.Classifier
	Scaler     *scale.Scaler
	Features   []string
	Version    string
}

const classifierTypeLogistic = "logistic_regression"

func artifactErr(message string, cause error) error {
	return common.NewAppError("ARTIFACT_ERROR", message, wrapArtifact(cause))
}

func wrapArtifact(cause error) error {
	if cause == nil {
		return common.ErrArtifact
	}
	return fmt.Errorf("%w: %w", common.ErrArtifact, cause)
}

// Load reads and cross-checks the three artifacts.
func Load(cfg common.ArtifactsConfig, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var spec ClassifierSpec
	if err := readJSON(cfg.ModelPath, classifierSchema, &spec); err != nil {
		return nil, artifactErr("load classifier", err)
	}
	var stats ScalerStats
	if err := readJSON(cfg.ScalerPath, scalerSchema, &stats); err != nil {
		return nil, artifactErr("load scaler", err)
	}
	var features []string
	if err := readJSON(cfg.FeaturesPath, featuresSchema, &features); err != nil {
		return nil, artifactErr("load feature list", err)
	}

	bundle, err := Assemble(spec, stats, features)
	if err != nil {
		return nil, err
	}
	logger.Info("artifacts.load.ok",
		"classifier", spec.Type,
		"version", bundle.Version,
		"scaled_columns", len(stats.Columns),
		"features", len(features),
	)
	return bundle, nil
}

// Assemble builds and cross-checks a bundle from already-decoded artifacts.
func Assemble(spec ClassifierSpec, stats ScalerStats, features []string) (*Bundle, error) {
	if len(features) == 0 {
		return nil, artifactErr("feature list is empty", nil)
	}
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if seen[f] {
			return nil, artifactErr(fmt.Sprintf("feature list repeats %q", f), nil)
		}
		seen[f] = true
	}

	scaler, err := scale.New(stats.Columns, stats.Means, stats.Stds)
	if err != nil {
		return nil, artifactErr("scaler statistics", err)
	}
	// Scaler output must cover the final feature list.
	if !scaler.Covers(features) {
		return nil, artifactErr("scaler columns do not cover the model feature list", nil)
	}

	classifier, err := buildClassifier(spec, features)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Classifier: classifier,
		Scaler:     scaler,
		Features:   append([]string(nil), features...),
		Version:    spec.Version,
	}, nil
}

func buildClassifier(spec ClassifierSpec, features []string) (model.Classifier, error) {
	if spec.Type != classifierTypeLogistic {
		return nil, artifactErr(fmt.Sprintf("unsupported classifier type %q", spec.Type), nil)
	}
	if len(spec.Weights) != len(features) {
		return nil, artifactErr(
			fmt.Sprintf("classifier has %d weights for %d features", len(spec.Weights), len(features)), nil)
	}
	ordered := make([]float64, len(features))
	for i, f := range features {
		w, ok := spec.Weights[f]
		if !ok {
			return nil, artifactErr(fmt.Sprintf("classifier missing weight for feature %q", f), nil)
		}
		ordered[i] = w
	}
	classifier, err := model.NewLogisticRegression(ordered, spec.Bias)
	if err != nil {
		return nil, artifactErr("classifier weights", err)
	}
	return classifier, nil
}

func readJSON(path string, schema map[string]any, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := validateJSON(schema, raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
