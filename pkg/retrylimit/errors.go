package retrylimit

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is implemented by errors that carry an HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is an unexpected HTTP response status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected response status " + e.Status
	}
	return fmt.Sprintf("unexpected response status %d", e.Code)
}

// StatusCode implements HTTPError.
func (e *StatusError) StatusCode() int { return e.Code }

// FatalError marks an error that must not be retried.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Fatal wraps err in a FatalError. It returns nil for a nil err.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// ErrorClassifier reports whether err means the remote side is overloaded.
type ErrorClassifier func(error) bool

// DefaultClassifier treats 429 and 5xx responses as overload.
func DefaultClassifier(err error) bool {
	code, ok := statusOf(err)
	return ok && (code == http.StatusTooManyRequests || code >= 500 && code < 600)
}

func statusOf(err error) (int, bool) {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), true
	}
	return 0, false
}

func isFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

func isTooManyRequests(err error) bool {
	code, ok := statusOf(err)
	return ok && code == http.StatusTooManyRequests
}
