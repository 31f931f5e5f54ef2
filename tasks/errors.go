package tasks

import "errors"

var (
	// ErrNotFound is returned when no task exists under the given id.
	ErrNotFound = errors.New("task not found")
	// ErrUnauthorized is returned when a task exists but belongs to someone else.
	ErrUnauthorized = errors.New("task belongs to another user")
	// ErrInvalid wraps validation failures.
	ErrInvalid = errors.New("invalid task")
	// ErrPastDeadline is returned when a deadline is set in the past.
	ErrPastDeadline = errors.New("deadline is in the past")
)
