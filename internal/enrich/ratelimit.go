package enrich

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a scorer with a requests-per-second budget so a burst
// of task edits cannot flood the external service.
type RateLimited struct {
	inner Scorer
	lim   *rate.Limiter
}

func NewRateLimited(inner Scorer, rps float64, burst int) *RateLimited {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{inner: inner, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Score(ctx context.Context, req Request) (Profile, error) {
	if err := r.lim.Wait(ctx); err != nil {
		return Profile{}, err
	}
	return r.inner.Score(ctx, req)
}
