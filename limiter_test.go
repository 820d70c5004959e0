package wikiengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriteLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewWriteLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	assert.True(t, limiter.Allow(ip), "first write")
	assert.True(t, limiter.Allow(ip), "second write")
	assert.False(t, limiter.Allow(ip), "third write should be blocked")
}

func TestWriteLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewWriteLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	assert.True(t, limiter.Allow(ip))
	assert.False(t, limiter.Allow(ip))

	time.Sleep(200 * time.Millisecond)
	assert.True(t, limiter.Allow(ip), "write after window should be allowed")
}

func TestWriteLimiterIsPerIP(t *testing.T) {
	limiter := NewWriteLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	assert.True(t, limiter.Allow("203.0.113.30"))
	assert.True(t, limiter.Allow("203.0.113.31"), "second ip is independent")
	assert.False(t, limiter.Allow("203.0.113.30"))
}

func TestWriteLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewWriteLimiter(1, time.Second)
	limiter.Stop()
	limiter.Stop()
}
