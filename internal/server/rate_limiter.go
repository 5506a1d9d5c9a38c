// Package server implements the per-connection token bucket that throttles
// inbound frames before they reach the event router.
package server

import (
	"math"
	"sync"
	"time"
)

// rateLimiter is a token bucket charged one token per inbound frame. A
// connection may burst up to its capacity, then settles to the refill rate
// of burst tokens per interval. Frames arriving with no token available are
// discarded by the read pump; they are never queued.
type rateLimiter struct {
	mu        sync.Mutex
	tokens    float64
	capacity  float64
	perSecond float64
	last      time.Time
}

// newRateLimiter builds a limiter from the relay's rate settings. The
// settings are clamped to positive values by Config.Sanitize before any
// client is constructed, so no re-validation happens here.
func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	capacity := float64(cfg.Burst)
	return &rateLimiter{
		tokens:    capacity,
		capacity:  capacity,
		perSecond: capacity / cfg.RefillInterval.Seconds(),
		last:      time.Now(),
	}
}

// allow reports whether the next inbound frame may be processed, spending
// one token when it may.
func (rl *rateLimiter) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(rl.last).Seconds(); elapsed > 0 {
		rl.tokens = math.Min(rl.tokens+elapsed*rl.perSecond, rl.capacity)
	}
	rl.last = now

	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}
