package llm

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// RetryingProvider retries transient provider failures with exponential
// backoff and jitter. Permanent errors (auth, bad request) return at once.
type RetryingProvider struct {
	next       Provider
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that retries failed requests up to
// maxRetries extra times.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next Provider) Provider {
		return &RetryingProvider{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

func (r *RetryingProvider) Name() string {
	return r.next.Name()
}

func (r *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		resp, err := r.next.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) || attempt == r.maxRetries {
			break
		}

		delay := r.delay(attempt)
		log.Printf("llm: %s attempt %d failed, retrying in %s: %v", r.next.Name(), attempt+1, delay, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if !IsRetryable(lastErr) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *RetryingProvider) delay(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	d := r.baseDelay * time.Duration(1<<uint(attempt))

	// Jitter in [-25%, +25%).
	jitter := time.Duration(rand.Float64() * float64(d) * 0.5)
	d = d + jitter - d/4

	if d > r.maxDelay {
		d = r.maxDelay
	}
	return d
}
