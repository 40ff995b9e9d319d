package cmd

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of failure categories a command run can end in.
type Kind uint8

const (
	// KindOther is an unexpected internal failure.
	KindOther Kind = iota
	// KindPlatform wraps a failed chat platform call (send, reply, lookup).
	KindPlatform
	// KindExternal wraps a failed call to an external service or its payload.
	KindExternal
	// KindArgument is malformed or missing user input.
	KindArgument
)

func (k Kind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindExternal:
		return "external"
	case KindArgument:
		return "argument"
	default:
		return "other"
	}
}

// Error is the only error type commands return. Message is set for argument
// and other failures, Err for wrapped platform and external failures.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var lineFolder = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Error renders the failure on a single line.
func (e *Error) Error() string {
	var s string
	switch e.Kind {
	case KindPlatform:
		s = "error executing a command: " + e.detail()
	case KindExternal:
		s = "external service failed: " + e.detail()
	case KindArgument:
		s = "invalid arguments to a command: " + e.detail()
	default:
		s = "command error: " + e.detail()
	}
	return lineFolder.Replace(s)
}

func (e *Error) detail() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }

// Platform wraps a chat platform failure. It returns nil for a nil err.
func Platform(err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: KindPlatform, Err: err}
}

// External wraps a failure of an external service. It returns nil for a nil err.
func External(err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: KindExternal, Err: err}
}

// Argument reports user-correctable input problems.
func Argument(format string, a ...any) error {
	return &Error{Kind: KindArgument, Message: fmt.Sprintf(format, a...)}
}

// Arity reports a wrong argument count. Counts include the command name.
func Arity(expected, got int) error {
	return Argument("invalid number of arguments (expected %d, got %d)", expected, got)
}

// Other reports an unexpected internal failure.
func Other(format string, a ...any) error {
	return &Error{Kind: KindOther, Message: fmt.Sprintf(format, a...)}
}

// AsError converts any error into an *Error. Errors that already carry a
// category keep it; everything else becomes KindOther.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: KindOther, Err: err}
}

// KindOf returns the category of err.
func KindOf(err error) Kind {
	if ce := AsError(err); ce != nil {
		return ce.Kind
	}
	return KindOther
}
