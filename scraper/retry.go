package scraper

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-products/config"
)

type retryPolicy struct {
	max      int
	base     time.Duration
	maxDelay time.Duration
}

func newRetryPolicy(cfg *config.Config) retryPolicy {
	return retryPolicy{
		max:      cfg.MaxRetries,
		base:     cfg.RetryBackoff,
		maxDelay: cfg.RetryMaxDelay,
	}
}

func (p retryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := p.base
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	attempt = min(attempt, 30)
	factor := time.Duration(1 << (attempt - 1))
	delay := time.Duration(math.MaxInt64)
	if base <= delay/factor {
		delay = base * factor
	}
	if p.maxDelay > 0 && delay > p.maxDelay {
		delay = p.maxDelay
	}
	return delay
}

func (p retryPolicy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable reports whether another attempt could succeed. Blocked and
// missing pages are final.
func retryable(err error) bool {
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return true
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return true
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500
	}
	return false
}
