package service

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict reports a duplicate email or username.
	ErrConflict = errors.New("resource already exists")
	// ErrNotFound reports a missing user or file.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden reports a role-hierarchy violation.
	ErrForbidden = errors.New("operation not permitted")
	// ErrFileTooLarge reports an upload beyond the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUnsupportedMediaType reports a MIME type outside the allow-list.
	ErrUnsupportedMediaType = errors.New("file type not allowed")
	// ErrNotificationDelivery reports a failed notification dispatch that
	// the caller may retry.
	ErrNotificationDelivery = errors.New("failed to send notification")
)

// StorageBackendError wraps a driver failure. The backend identity is kept
// for internal logs only; user-facing messages stay generic.
type StorageBackendError struct {
	Driver string
	Err    error
}

func (e *StorageBackendError) Error() string {
	return fmt.Sprintf("storage backend operation failed: %v", e.Err)
}

func (e *StorageBackendError) Unwrap() error {
	return e.Err
}
