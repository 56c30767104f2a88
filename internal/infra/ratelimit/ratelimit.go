// Package ratelimit keeps one token bucket per client address.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Registry manages a rate limiter per key (normally a client IP).
// A Registry with a non-positive rate allows everything.
type Registry struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu       sync.RWMutex
	limiters map[string]*entry
	lastScan time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Registry allowing perSecond events per key with the given
// burst. Keys unused for idle are dropped; zero means ten minutes.
func New(perSecond float64, burst int, idle time.Duration) *Registry {
	if burst <= 0 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Registry{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     idle,
		limiters: make(map[string]*entry),
	}
}

// Enabled reports whether the registry limits anything.
func (r *Registry) Enabled() bool {
	return r != nil && r.limit > 0
}

// Allow reports whether one more event for key may happen now.
func (r *Registry) Allow(key string) bool {
	if !r.Enabled() {
		return true
	}
	return r.getOrCreate(key, time.Now()).Allow()
}

// Len returns the number of tracked keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.limiters)
}

func (r *Registry) getOrCreate(key string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastScan) >= r.idle {
		r.prune(now)
		r.lastScan = now
	}

	e, ok := r.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (r *Registry) prune(now time.Time) {
	for k, e := range r.limiters {
		if now.Sub(e.lastSeen) >= r.idle {
			delete(r.limiters, k)
		}
	}
}
