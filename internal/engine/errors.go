package engine

import (
	"errors"
	"fmt"
)

// GenerateError is returned when a generation produces no artifact.
//
// Validation failures are never reported this way; they are carried in
// GeneratedCode.Validation. A GenerateError means one of:
//   - the intent is malformed
//   - the (language, kind) combination is not implemented
//   - an internal invariant was violated while building the IR
//   - strict node policy met a node the target cannot render
//   - the context was cancelled between stages
//   - the artifact could not be persisted
type GenerateError struct {
	// Code identifies the error category.
	Code GenerateErrorCode

	// Stage is the pipeline stage that failed.
	Stage Stage

	// Intent is the short label of the intent (see intent.Spec.Label).
	Intent string

	// Err is the underlying cause.
	Err error
}

// GenerateErrorCode categorizes generation errors.
type GenerateErrorCode string

const (
	ErrCodeInvalidIntent   GenerateErrorCode = "INVALID_INTENT"
	ErrCodeUnsupported     GenerateErrorCode = "UNSUPPORTED"
	ErrCodeInvariant       GenerateErrorCode = "INVARIANT_VIOLATION"
	ErrCodeUnsupportedNode GenerateErrorCode = "UNSUPPORTED_NODE"
	ErrCodeCancelled       GenerateErrorCode = "CANCELLED"
	ErrCodeStoreFailed     GenerateErrorCode = "STORE_FAILED"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageIntent   Stage = "intent"
	StageBuild    Stage = "ast"
	StageIR       Stage = "ir"
	StageEmit     Stage = "emit"
	StageValidate Stage = "validate"
	StageRepair   Stage = "repair"
	StagePersist  Stage = "persist"
)

// Error implements the error interface.
func (e *GenerateError) Error() string {
	if e.Intent != "" {
		return fmt.Sprintf("%s: %v", e.Intent, e.Err)
	}
	return e.Err.Error()
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

// IsUnsupported returns true if err reports an unimplemented
// (language, kind) combination.
func IsUnsupported(err error) bool {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeUnsupported
	}
	return false
}

// IsCancelled returns true if generation stopped because the context ended.
func IsCancelled(err error) bool {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeCancelled
	}
	return false
}

func newGenerateError(code GenerateErrorCode, stage Stage, label string, err error) *GenerateError {
	return &GenerateError{Code: code, Stage: stage, Intent: label, Err: err}
}
