package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests per market code. It is an explicit value
// passed to whoever dispatches requests; there is no package-level instance.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// New creates an empty limiter. Markets without a configured rate are not
// limited.
func New() *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter)}
}

// Set installs the per-second request rate for a market. A non-positive rate
// means unlimited.
func (l *Limiter) Set(market string, perSec float64) {
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[market] = rate.NewLimiter(limit, 1)
}

// Wait blocks until the market's limiter permits an event, or the context is
// cancelled. Markets without a limiter proceed immediately.
func (l *Limiter) Wait(ctx context.Context, market string) error {
	l.mu.RLock()
	limiter, exists := l.limiters[market]
	l.mu.RUnlock()

	if !exists {
		return nil
	}
	return limiter.Wait(ctx)
}

// Allow reports whether an event for the market may happen now.
func (l *Limiter) Allow(market string) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[market]
	l.mu.RUnlock()

	if !exists {
		return true
	}
	return limiter.Allow()
}
