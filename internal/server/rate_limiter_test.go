package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRateLimiterBurstThenDeny tests that a fresh limiter admits exactly its
// burst of frames before denying.
func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Burst: 3, RefillInterval: time.Minute})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow(), "frame %d should fit in the burst", i+1)
	}
	assert.False(t, rl.allow(), "frames beyond the burst must be denied")
}

// TestRateLimiterRefills tests that tokens return at the configured rate and
// never accumulate past the bucket's capacity.
func TestRateLimiterRefills(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Burst: 2, RefillInterval: time.Second})

	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())

	// A full interval elapses; the bucket is back at capacity but no more.
	rl.last = time.Now().Add(-time.Second)
	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())

	// A long idle stretch still refills only to capacity.
	rl.last = time.Now().Add(-time.Hour)
	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
}
