package retrylimit

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures WithRetryConfig.
type RetryConfig struct {
	MaxAttempts     int           // values below 1 mean a single attempt
	InitialDelay    time.Duration // pause before the first retry
	MaxDelay        time.Duration // cap for the growing pause, 0 for none
	RateLimitDelay  time.Duration // fixed pause after a 429
	Multiplier      float64
	Jitter          bool // add up to 25% to each pause
	ErrorClassifier ErrorClassifier
	Logger          *zerolog.Logger
}

// DefaultRetryConfig allows one retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     2,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		RateLimitDelay:  time.Second,
		Multiplier:      2.0,
		Jitter:          true,
		ErrorClassifier: DefaultClassifier,
	}
}

// WithRetryConfig runs fn until it succeeds, returns a FatalError, ctx ends or
// attempts run out. The last error from fn is returned. lim may be nil.
func WithRetryConfig(ctx context.Context, fn func() error, lim *AdaptiveLimiter, cfg RetryConfig) error {
	attempts := max(cfg.MaxAttempts, 1)
	classify := cfg.ErrorClassifier
	if classify == nil {
		classify = DefaultClassifier
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if lim != nil {
			if werr := lim.Wait(ctx); werr != nil {
				return werr
			}
		}

		if err = fn(); err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				log.Debug().Int("attempt", attempt).Msg("request succeeded after retry")
			}
			return nil
		}
		if isFatal(err) {
			return err
		}
		if lim != nil && classify(err) {
			lim.RateLimited()
		}
		if attempt >= attempts {
			return err
		}

		pause := delay
		switch {
		case isTooManyRequests(err):
			pause = cfg.RateLimitDelay
		case cfg.Jitter:
			pause = jitter(delay)
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("sleep", pause).Msg("request failed, retrying")

		if serr := sleep(ctx, pause); serr != nil {
			return serr
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 {
			delay = min(delay, cfg.MaxDelay)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + rand.N(d/4)
}
