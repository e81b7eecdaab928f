package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrStructural   = errors.New("structural error")
	ErrArtifact     = errors.New("artifact integrity error")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StructuralError is a fatal, stage-tagged pipeline error. Local data-quality
// conditions never produce one; only conditions that make the run unusable
// (empty input, missing required column, artifact mismatch) do.
type StructuralError struct {
	Stage  string
	Rule   string
	Detail string
	Cause  error
}

func (e *StructuralError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stage %s: %s: %s: %v", e.Stage, e.Rule, e.Detail, e.Cause)
	}
	return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.Rule, e.Detail)
}

func (e *StructuralError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrStructural
}

// Is lets errors.Is(err, common.ErrStructural) match regardless of cause.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

func NewStructuralError(stage, rule, detail string) *StructuralError {
	return &StructuralError{Stage: stage, Rule: rule, Detail: detail}
}

func NewStructuralErrorf(stage, rule, format string, args ...any) *StructuralError {
	return &StructuralError{Stage: stage, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
