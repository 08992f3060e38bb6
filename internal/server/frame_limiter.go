// Package server throttles inbound client frames with a per-connection
// token bucket sized from configuration.
package server

import (
	"sync"
	"time"
)

// frameLimiter meters one connection's inbound frames. The bucket starts
// full at the configured burst and refills continuously over the refill
// interval; frames that find the bucket empty are discarded by the read
// pump rather than closing the connection.
type frameLimiter struct {
	mu     sync.Mutex
	tokens float64
	burst  float64
	perSec float64
	last   time.Time
}

// newFrameLimiter builds a limiter from the configured burst and refill
// interval. Non-positive values fall back to one frame per second so a bad
// configuration still throttles instead of blocking every frame.
func newFrameLimiter(burst int, refill time.Duration) *frameLimiter {
	if burst <= 0 {
		burst = 1
	}
	if refill <= 0 {
		refill = time.Second
	}

	return &frameLimiter{
		tokens: float64(burst),
		burst:  float64(burst),
		perSec: float64(burst) / refill.Seconds(),
		last:   time.Now(),
	}
}

// allow consumes one token if available and reports whether the frame may
// be processed, along with the whole tokens left for the read pump's debug
// logging. A denied frame leaves the bucket untouched.
func (fl *frameLimiter) allow() (bool, int) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(fl.last).Seconds(); elapsed > 0 {
		fl.tokens = min(fl.tokens+elapsed*fl.perSec, fl.burst)
	}
	fl.last = now

	if fl.tokens < 1 {
		return false, 0
	}
	fl.tokens--
	return true, int(fl.tokens)
}
