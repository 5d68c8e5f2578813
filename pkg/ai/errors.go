package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvocation is matched by every *InvocationError.
var ErrInvocation = errors.New("model invocation failed")

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindQuota           ErrorKind = "quota"
	KindTimeout         ErrorKind = "timeout"
	KindUnavailable     ErrorKind = "unavailable"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindOther           ErrorKind = "other"
)

// InvocationError is the structured error returned by providers.
type InvocationError struct {
	Provider string
	Model    string
	Kind     ErrorKind
	Err      error
}

func (e *InvocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s error", e.Provider, e.Model, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s error: %v", e.Provider, e.Model, e.Kind, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvocation) match any invocation error.
func (e *InvocationError) Is(target error) bool {
	return target == ErrInvocation
}

// KindOf returns the error kind for err, or KindOther when err is not an InvocationError.
func KindOf(err error) ErrorKind {
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindOther
}

func newInvocationError(provider, model string, kind ErrorKind, err error) *InvocationError {
	return &InvocationError{Provider: provider, Model: model, Kind: kind, Err: err}
}

// kindFromStatus maps an HTTP status code returned by a provider API.
func kindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindQuota
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= http.StatusInternalServerError:
		return KindUnavailable
	default:
		return KindOther
	}
}

func contextKind(err error) (ErrorKind, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	case errors.Is(err, context.Canceled):
		return KindOther, true
	default:
		return "", false
	}
}
