package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetryConfig_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: http.StatusServiceUnavailable}
		}
		return nil
	}, nil, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryConfig_ReturnsLastError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return boom
	}, nil, fastConfig(2))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestWithRetryConfig_FatalStopsImmediately(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: &StatusError{Code: http.StatusUnauthorized}}
	}, nil, fastConfig(5))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode())
	assert.Equal(t, 1, calls)
}

func TestWithRetryConfig_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = WithRetryConfig(context.Background(), func() error {
		calls++
		return errors.New("nope")
	}, nil, fastConfig(0))
	assert.Equal(t, 1, calls)
}

func TestWithRetryConfig_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(3)
	cfg.InitialDelay = time.Hour

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- WithRetryConfig(ctx, func() error {
			calls++
			return errors.New("transient")
		}, nil, cfg)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry loop ignored cancellation")
	}
}

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 8, 1, 0.5)
	assert.Equal(t, 4.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())
	lim.RateLimited()
	lim.RateLimited()
	assert.Equal(t, 1.0, lim.CurrentLimit(), "never below min")

	require.NoError(t, lim.Wait(context.Background()))
}

func TestDefaultClassifier(t *testing.T) {
	assert.True(t, DefaultClassifier(&StatusError{Code: http.StatusTooManyRequests}))
	assert.True(t, DefaultClassifier(&StatusError{Code: http.StatusBadGateway}))
	assert.False(t, DefaultClassifier(&StatusError{Code: http.StatusNotFound}))
	assert.False(t, DefaultClassifier(errors.New("plain")))
}

func TestStatusError_Message(t *testing.T) {
	assert.Equal(t, "unexpected response status 503 Service Unavailable",
		(&StatusError{Code: 503, Status: "503 Service Unavailable"}).Error())
	assert.Equal(t, "unexpected response status 502", (&StatusError{Code: 502}).Error())
}

func TestWithRetryConfig_WrappedFatalStops(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return fmt.Errorf("decode: %w", Fatal(errors.New("bad payload")))
	}, nil, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryConfig_OverloadSlowsLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(100, 10, 200, 10, 0.5)
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("search: %w", &StatusError{Code: http.StatusTooManyRequests})
		}
		return nil
	}, lim, fastConfig(2))

	require.NoError(t, err)
	assert.Equal(t, 50.0, lim.CurrentLimit(), "success inside the recovery window keeps the lowered rate")
}

func TestAdaptiveLimiter_SuccessRaisesUpToMax(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1, 3, 0.5, 0.5)
	lim.Success()
	assert.Equal(t, 2.5, lim.CurrentLimit())
	lim.Success()
	lim.Success()
	assert.Equal(t, 3.0, lim.CurrentLimit())
}

func TestFatalNil(t *testing.T) {
	assert.NoError(t, Fatal(nil))
}
