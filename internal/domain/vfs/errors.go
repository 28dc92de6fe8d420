package vfs

import (
	"errors"
	"fmt"
)

// Status classifies an expected operation failure.
type Status string

const (
	StatusNotFound      Status = "not_found"
	StatusWrongKind     Status = "wrong_kind"
	StatusAlreadyExists Status = "already_exists"
	StatusNotEmpty      Status = "not_empty"
	StatusInvalidName   Status = "invalid_name"
	StatusRootProtected Status = "root_protected"
	StatusPersistence   Status = "persistence_failure"
)

// Error is an expected operation failure carrying a stable status code
// and a human-readable message. Expected conditions never surface as
// panics; callers branch on Status and show Message.
type Error struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func errorf(status Status, format string, args ...interface{}) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// StatusOf extracts the failure status from an error chain. It returns
// the empty status for nil and unclassified errors.
func StatusOf(err error) Status {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return ""
}

// MoveError reports a move that copied the source but could not remove
// it afterwards. The destination is kept rather than rolled back, so
// both nodes exist when this error is returned.
type MoveError struct {
	Source      string
	Destination string
	Err         error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("copied '%s' to '%s' but could not remove original: %v", e.Source, e.Destination, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// stageError prefixes an error message with the failing stage of a
// composite operation while preserving its status.
func stageError(stage string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Status: e.Status, Message: fmt.Sprintf("%s: %s", stage, e.Message)}
	}
	return fmt.Errorf("%s: %w", stage, err)
}
