package catalog

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate limits per source (requests per second). Spotify's documented
// limit is generous; Discogs allows 60 requests per minute for authenticated
// clients.
var defaultRateLimits = map[Source]rate.Limit{
	SourceSpotify: 5,
	SourceDiscogs: 1,
}

// RateLimiterMap holds one rate.Limiter per source, created once at startup.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[Source]*rate.Limiter
}

// NewRateLimiterMap creates all source rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[Source]*rate.Limiter, len(defaultRateLimits)),
	}
	for source, limit := range defaultRateLimits {
		m.limiters[source] = rate.NewLimiter(limit, 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given source allows a request,
// or the context is canceled.
func (m *RateLimiterMap) Wait(ctx context.Context, source Source) error {
	m.mu.RLock()
	limiter, ok := m.limiters[source]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
