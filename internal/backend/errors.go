package backend

import (
	"errors"
	"fmt"
)

// Operation names carried by Error.
const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	OpUpload = "upload"
)

// ErrNotConfigured is returned by clients built without a required endpoint.
var ErrNotConfigured = errors.New("backend not configured")

// Error is a failed backend call. Its message is the backend's own message.
type Error struct {
	Op      string
	Target  string // table or bucket
	Status  int    // HTTP status when the backend is remote
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Target)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap builds an Error for op on target, reusing err's message. A nil err
// returns nil; an existing *Error is returned unchanged.
func Wrap(op, target string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Op: op, Target: target, Message: err.Error(), Err: err}
}

// Message extracts the backend message from err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr.Error()
	}
	return err.Error()
}
