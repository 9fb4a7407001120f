package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Kind classifies why a dependency check or relay call failed.
type Kind string

const (
	NotFound    Kind = "not_found"
	ParseError  Kind = "parse_error"
	Timeout     Kind = "timeout"
	Unreachable Kind = "unreachable"
	RemoteError Kind = "remote_error"
)

// Error carries the failure kind plus whatever context the caller has.
// Code and Body are only set for RemoteError.
type Error struct {
	Kind Kind
	Op   string
	Code int
	Body string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + string(e.Kind)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: Timeout}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Remote(op string, code int, body string) *Error {
	return &Error{Kind: RemoteError, Op: op, Code: code, Body: body}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// Transport classifies an error returned by an http.Client call as either
// Timeout or Unreachable.
func Transport(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return New(Timeout, op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return New(Timeout, op, err)
	}
	return New(Unreachable, op, err)
}
