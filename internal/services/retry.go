package services

import (
	"context"
	"math/rand"
	"time"

	"resumeats/analyzer/internal/config"
)

// callWithRetry runs fn up to cfg.MaxAttempts times, sleeping between
// attempts with capped exponential backoff plus jitter. Only transport-level
// failures (upstream unavailable or rate limited) are retried; any other
// error is returned immediately.
func callWithRetry(ctx context.Context, cfg config.RetryConfig, fn func() (string, error)) (string, error) {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		if !Retryable(err) {
			return "", err
		}

		lastErr = err
		if attempt == cfg.MaxAttempts {
			break
		}

		jittered := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
		select {
		case <-ctx.Done():
			return "", classifyUpstreamError(StageCompleting, ctx.Err())
		case <-time.After(jittered):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return "", lastErr
}
