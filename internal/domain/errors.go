package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyURL is returned when a task is created without a source URL.
	ErrEmptyURL = errors.New("task URL cannot be empty")

	// ErrInvalidTaskStatus is returned when a status value is not one of the known states.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTransition is returned when a status change would move a task
	// backwards or skip a state.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrEmptyMessageID is returned when a task is completed without a channel message ID.
	ErrEmptyMessageID = errors.New("channel message ID cannot be empty")
)
