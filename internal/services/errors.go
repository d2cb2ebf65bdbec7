package services

import (
	"errors"
	"fmt"
)

// Stage names the pipeline state a request was in when it failed.
type Stage string

const (
	StageExtracting Stage = "extracting"
	StageChunking   Stage = "chunking"
	StageIndexing   Stage = "indexing"
	StageRetrieving Stage = "retrieving"
	StageComposing  Stage = "composing"
	StageCompleting Stage = "completing"
	StageValidating Stage = "validating"
)

// ErrorKind classifies a pipeline failure.
type ErrorKind string

const (
	KindExtraction      ErrorKind = "extraction_error"
	KindIndexBuild      ErrorKind = "index_build_error"
	KindUnavailable     ErrorKind = "upstream_unavailable"
	KindRateLimited     ErrorKind = "upstream_rate_limited"
	KindInvalidResponse ErrorKind = "upstream_invalid_response"
	KindValidation      ErrorKind = "validation_error"
)

// PipelineError carries (stage, kind, detail) from the failing component to
// the caller unmodified. The orchestrator maps it to the Failed state; the
// request layer maps it to an HTTP status.
type PipelineError struct {
	Stage  Stage
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %s: %v", e.Kind, e.Stage, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Stage, e.Detail)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func newPipelineError(stage Stage, kind ErrorKind, detail string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: kind, Detail: detail, Err: err}
}

// Retryable reports whether a failure is transport-level and eligible for
// another attempt. Validation and malformed-output failures are terminal;
// retrying the same prompt rarely changes malformed structure.
func Retryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == KindUnavailable || pe.Kind == KindRateLimited
	}
	return false
}

// AsPipelineError extracts a PipelineError, or wraps err as an upstream
// failure at the given stage when it is an untyped error.
func AsPipelineError(stage Stage, err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		if pe.Stage == "" {
			pe.Stage = stage
		}
		return pe
	}
	return newPipelineError(stage, KindUnavailable, "unexpected failure", err)
}
