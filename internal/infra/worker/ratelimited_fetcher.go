package worker

import (
	"context"
	"time"

	"newslook/internal/domain/entity"
	"newslook/internal/infra/extractor"
	"newslook/internal/infra/httpclient"
	"newslook/pkg/ratelimit"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher wraps an extractor.Fetcher with a shared, global
// token-bucket limiter so outbound QPS stays bounded regardless of how
// many Workers are running concurrently (§5's "rate limiter: shared
// across Workers; thread-safe; fair FIFO among waiters"). It also
// records every request timestamp per source into an
// InMemoryRateLimitStore, repurposing the sliding-window store's
// AddRequest/GetRequestCount as an *observed* QPS reporter for the
// Lineage & Health Monitor rather than an enforcement mechanism.
type RateLimitedFetcher struct {
	next    extractor.Fetcher
	limiter *rate.Limiter
	observed *ratelimit.InMemoryRateLimitStore
}

// NewRateLimitedFetcher wraps next with a token bucket allowing qps
// requests per second, burst-sized at burst.
func NewRateLimitedFetcher(next extractor.Fetcher, qps float64, burst int) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		next:     next,
		limiter:  rate.NewLimiter(rate.Limit(qps), burst),
		observed: ratelimit.NewInMemoryRateLimitStore(ratelimit.DefaultInMemoryStoreConfig()),
	}
}

// Fetch blocks for a token before delegating to the wrapped Fetcher.
// Waiting aborts early with the context's error if it is cancelled
// first.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, src entity.Source, rawURL string) (*httpclient.Result, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	now := time.Now()
	_ = f.observed.AddRequest(ctx, string(src), now)
	return f.next.Fetch(ctx, src, rawURL)
}

// ObservedQPS returns the number of requests recorded for src in the
// last window.
func (f *RateLimitedFetcher) ObservedQPS(ctx context.Context, src entity.Source, window time.Duration) (float64, error) {
	count, err := f.observed.GetRequestCount(ctx, string(src), time.Now().Add(-window))
	if err != nil {
		return 0, err
	}
	return float64(count) / window.Seconds(), nil
}
