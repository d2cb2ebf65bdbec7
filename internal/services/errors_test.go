package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeats/analyzer/internal/config"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindUnavailable, true},
		{KindRateLimited, true},
		{KindExtraction, false},
		{KindIndexBuild, false},
		{KindInvalidResponse, false},
		{KindValidation, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := newPipelineError(StageCompleting, tt.kind, "boom", nil)
			assert.Equal(t, tt.want, Retryable(err))
		})
	}

	assert.False(t, Retryable(errors.New("plain error")))

	wrapped := fmt.Errorf("outer: %w", newPipelineError(StageIndexing, KindRateLimited, "quota", nil))
	assert.True(t, Retryable(wrapped))
}

func TestPipelineErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := newPipelineError(StageCompleting, KindUnavailable, "backend down", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream_unavailable")
	assert.Contains(t, err.Error(), "completing")
}

func TestAsPipelineErrorWrapsUntypedErrors(t *testing.T) {
	pe := AsPipelineError(StageRetrieving, errors.New("dial tcp: refused"))

	assert.Equal(t, StageRetrieving, pe.Stage)
	assert.Equal(t, KindUnavailable, pe.Kind)

	original := newPipelineError(StageValidating, KindValidation, "bad shape", nil)
	assert.Same(t, original, AsPipelineError(StageCompleting, original))
}

func retryTestConfig() config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestCallWithRetrySucceedsMidBudget(t *testing.T) {
	calls := 0
	result, err := callWithRetry(context.Background(), retryTestConfig(), func() (string, error) {
		calls++
		if calls < 2 {
			return "", newPipelineError(StageCompleting, KindUnavailable, "backend down", nil)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestCallWithRetryDoesNotRetryTerminalErrors(t *testing.T) {
	calls := 0
	_, err := callWithRetry(context.Background(), retryTestConfig(), func() (string, error) {
		calls++
		return "", newPipelineError(StageValidating, KindValidation, "bad shape", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := callWithRetry(context.Background(), retryTestConfig(), func() (string, error) {
		calls++
		return "", newPipelineError(StageCompleting, KindRateLimited, "quota", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindRateLimited, pe.Kind)
}

func TestCallWithRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := callWithRetry(ctx, config.RetryConfig{MaxAttempts: 5, InitialDelay: time.Minute, MaxDelay: time.Minute}, func() (string, error) {
		calls++
		cancel()
		return "", newPipelineError(StageCompleting, KindUnavailable, "backend down", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
