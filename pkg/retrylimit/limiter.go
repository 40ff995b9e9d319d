// Package retrylimit paces outbound requests and retries the ones that fail
// transiently. Errors carrying an HTTP status get special treatment: 429 and
// 5xx slow the limiter down, and a 429 waits a fixed delay before retrying.
//
//	lim := retrylimit.NewAdaptiveLimiter(2, 0.5, 4, 0.5, 0.5)
//	cfg := retrylimit.DefaultRetryConfig()
//	err := retrylimit.WithRetryConfig(ctx, fetch, lim, cfg)
package retrylimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRecovery is how long an AdaptiveLimiter waits after an overload
// before successes may raise the rate again.
const DefaultRecovery = 10 * time.Second

// AdaptiveLimiter is a token bucket whose rate grows additively on success
// and shrinks multiplicatively on overload. Safe for concurrent use.
type AdaptiveLimiter struct {
	limiter *rate.Limiter

	mu        sync.Mutex
	floor     rate.Limit
	ceiling   rate.Limit
	step      rate.Limit
	backoff   float64
	recovery  time.Duration
	throttled time.Time
}

// NewAdaptiveLimiter starts at initial requests per second and stays within
// [min, max]. Each success adds stepUp; each overload multiplies the rate by
// stepDown. A non-positive min becomes 1.
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min <= 0 {
		min = 1
	}
	initial = rate.Limit(clamp(float64(initial), float64(min), float64(initial)))
	if max < initial {
		max = initial
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		floor:    min,
		ceiling:  max,
		step:     stepUp,
		backoff:  stepDown,
		recovery: DefaultRecovery,
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate unless an overload was seen recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.throttled) < a.recovery {
		return
	}
	a.set(a.limiter.Limit() + a.step)
}

// RateLimited lowers the rate after an overload response.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.throttled = time.Now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.backoff))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = rate.Limit(clamp(float64(l), float64(a.floor), float64(a.ceiling)))
	if l == a.limiter.Limit() {
		return
	}
	a.limiter.SetLimit(l)
	a.limiter.SetBurst(burstFor(l))
}

func burstFor(l rate.Limit) int { return max(1, int(l)) }

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
