package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/relay-api/internal/store"
	"github.com/phrazzld/relay-api/internal/task"
)

// Common service errors - sentinel errors used across service implementations.
// The API layer maps these to HTTP status codes.
var (
	// ErrTaskNotFound indicates that the requested upload task does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrQueueFull indicates that the background queue had no room for the task.
	// The task is recorded as failed. API layer should map this to HTTP 503.
	ErrQueueFull = task.ErrQueueFull
)

// UploadServiceError wraps errors from the upload service with context.
type UploadServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "get")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for UploadServiceError.
func (e *UploadServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("upload service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *UploadServiceError) Unwrap() error {
	return e.Err
}

// NewUploadServiceError creates a new UploadServiceError.
// It returns known sentinel errors directly without wrapping.
func NewUploadServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTaskNotFound) || errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	if errors.Is(err, ErrQueueFull) {
		return ErrQueueFull
	}

	return &UploadServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
