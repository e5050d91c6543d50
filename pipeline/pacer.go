package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out enrichment batches so the pipeline respects the external
// service's rate budget. Implementations must be safe to call from the
// single orchestration goroutine and must honor context cancellation.
type Pacer interface {
	Pace(ctx context.Context) error
}

// TokenBucketPacer paces batches with a token bucket. The bucket starts
// full, so the first batch proceeds immediately and later batches wait out
// the configured interval.
type TokenBucketPacer struct {
	limiter *rate.Limiter
}

// NewTokenBucketPacer allows one batch per interval. A non-positive
// interval disables pacing.
func NewTokenBucketPacer(interval time.Duration) *TokenBucketPacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucketPacer{limiter: rate.NewLimiter(limit, 1)}
}

// Pace blocks until the next batch may start.
func (p *TokenBucketPacer) Pace(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NopPacer never waits. Used by tests and by callers that pace externally.
type NopPacer struct{}

func (NopPacer) Pace(context.Context) error { return nil }
