// Package throttle paces and guards outbound calls to rate-limited Steam endpoints.
package throttle

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket rate limiter for a specific endpoint.
type RateLimiter struct {
	limiter *rate.Limiter
	name    string
}

// NewRateLimiter creates a rate limiter allowing rps requests per second.
func NewRateLimiter(name string, rps int) *RateLimiter {
	return newLimiter(name, rate.Limit(rps))
}

// NewPerMinuteLimiter creates a rate limiter allowing rpm requests per minute.
// The market endpoints are budgeted per minute, not per second.
func NewPerMinuteLimiter(name string, rpm int) *RateLimiter {
	return newLimiter(name, rate.Every(time.Minute/time.Duration(rpm)))
}

func newLimiter(name string, limit rate.Limit) *RateLimiter {
	slog.Debug("rate limiter created",
		"endpoint", name,
		"limit", float64(limit),
	)
	return &RateLimiter{
		// Burst(1) spreads requests evenly instead of letting them bunch up.
		limiter: rate.NewLimiter(limit, 1),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows another request or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		slog.Warn("rate limiter wait cancelled",
			"endpoint", rl.name,
			"error", err,
		)
		return err
	}
	return nil
}

// Name returns the endpoint name this limiter is associated with.
func (rl *RateLimiter) Name() string {
	return rl.name
}
