package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Artifacts ArtifactsConfig
	Scoring   ScoringConfig
	Pipeline  PipelineConfig
	LogLevel  slog.Level
}

// ArtifactsConfig holds the locations of the frozen model artifacts.
type ArtifactsConfig struct {
	ModelPath    string
	ScalerPath   string
	FeaturesPath string
}

// ScoringConfig holds risk-bucketing thresholds.
type ScoringConfig struct {
	RiskLowThreshold  float64
	RiskHighThreshold float64
}

// PipelineConfig holds knobs for a pipeline run.
type PipelineConfig struct {
	// ExtractWorkers bounds the goroutines used for row extraction.
	// 0 means GOMAXPROCS.
	ExtractWorkers int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			ModelPath:    getEnv("CHURN_MODEL_PATH", "models/classifier.json"),
			ScalerPath:   getEnv("CHURN_SCALER_PATH", "models/scaler.json"),
			FeaturesPath: getEnv("CHURN_FEATURES_PATH", "models/feature_names.json"),
		},
		Scoring: ScoringConfig{
			RiskLowThreshold:  getEnvAsFloat64("CHURN_RISK_LOW", 0.30),
			RiskHighThreshold: getEnvAsFloat64("CHURN_RISK_HIGH", 0.70),
		},
		Pipeline: PipelineConfig{
			ExtractWorkers: getEnvAsInt("CHURN_EXTRACT_WORKERS", 0),
		},
		LogLevel: getEnvAsLogLevel("CHURN_LOG_LEVEL", slog.LevelInfo),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Artifacts.ModelPath == "" {
		return NewAppError("CONFIG_ERROR", "CHURN_MODEL_PATH is required", ErrInvalidInput)
	}
	if c.Artifacts.ScalerPath == "" {
		return NewAppError("CONFIG_ERROR", "CHURN_SCALER_PATH is required", ErrInvalidInput)
	}
	if c.Artifacts.FeaturesPath == "" {
		return NewAppError("CONFIG_ERROR", "CHURN_FEATURES_PATH is required", ErrInvalidInput)
	}
	if c.Scoring.RiskLowThreshold < 0 || c.Scoring.RiskHighThreshold > 1 ||
		c.Scoring.RiskLowThreshold > c.Scoring.RiskHighThreshold {
		return NewAppError("CONFIG_ERROR", "risk thresholds must satisfy 0 <= low <= high <= 1", ErrInvalidInput)
	}
	if c.Pipeline.ExtractWorkers < 0 {
		return NewAppError("CONFIG_ERROR", "CHURN_EXTRACT_WORKERS must be >= 0", ErrInvalidInput)
	}
	return nil
}
