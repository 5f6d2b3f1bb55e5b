package api

import (
	"sync"

	"golang.org/x/time/rate"
)

const maxTrackedOrganizations = 10000

// RateLimiter keeps one token bucket per organization.
type RateLimiter struct {
	mu                sync.Mutex
	limiters          map[string]*rate.Limiter
	requestsPerSecond int
	burstSize         int
}

func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 100
	}
	if burst <= 0 {
		burst = requestsPerSecond * 2
	}
	return &RateLimiter{
		limiters:          make(map[string]*rate.Limiter),
		requestsPerSecond: requestsPerSecond,
		burstSize:         burst,
	}
}

func (rl *RateLimiter) Allow(organization string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// bound memory: drop every bucket once the map is full
	if len(rl.limiters) >= maxTrackedOrganizations {
		rl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, exists := rl.limiters[organization]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(rl.requestsPerSecond), rl.burstSize)
		rl.limiters[organization] = limiter
	}

	return limiter.Allow()
}
