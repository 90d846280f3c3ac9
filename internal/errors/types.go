// Package errors classifies backend failures so callers can decide whether
// a retry or an operator alert is warranted.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// ErrorType is the coarse class of a backend failure.
type ErrorType int

const (
	// ErrorTypeTransient means the backend may accept the same call later.
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent means the call itself was refused.
	ErrorTypePermanent
)

func (t ErrorType) String() string {
	if t == ErrorTypeTransient {
		return "transient"
	}
	return "permanent"
}

// Failure carries the class and, when the backend answered, its HTTP status.
type Failure struct {
	Type    ErrorType
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return fmt.Sprintf("%s failure: %v", f.Type, f.Err)
	}
	return fmt.Sprintf("%s failure", f.Type)
}

func (f *Failure) Unwrap() error { return f.Err }

// Unavailable marks err as a transport level failure.
func Unavailable(err error) error {
	return &Failure{Type: ErrorTypeTransient, Err: err}
}

// FromHTTPStatus classifies a non-2xx backend response. Timeouts, rate
// limiting and every 5xx are transient.
func FromHTTPStatus(status int, message string, err error) error {
	if err == nil {
		err = fmt.Errorf("status %d", status)
	}
	kind := ErrorTypePermanent
	if status >= http.StatusInternalServerError ||
		status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests {
		kind = ErrorTypeTransient
	}
	return &Failure{Type: kind, Status: status, Message: message, Err: err}
}

// GetErrorType classifies err. Unclassified errors are permanent unless they
// look like a network or deadline failure.
func GetErrorType(err error) ErrorType {
	var f *Failure
	if errors.As(err, &f) {
		return f.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeTransient
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE,
			syscall.ETIMEDOUT, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return ErrorTypeTransient
		}
	}
	return ErrorTypePermanent
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return err != nil && GetErrorType(err) == ErrorTypeTransient
}

// IsPermanent reports whether err is a refusal the backend will repeat.
func IsPermanent(err error) bool {
	return err != nil && GetErrorType(err) == ErrorTypePermanent
}

// StatusCode returns the backend status attached to err, or 0.
func StatusCode(err error) int {
	var f *Failure
	if errors.As(err, &f) {
		return f.Status
	}
	return 0
}
