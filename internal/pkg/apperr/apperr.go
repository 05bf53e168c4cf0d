package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the workflow core. Handlers map these onto HTTP
// status codes in serializer; services wrap them with context via %w.
var (
	// ErrVersionConflict means the caller's expected version did not match
	// the stored version. The caller must re-read and decide whether to
	// retry or surface "someone else modified this".
	ErrVersionConflict = errors.New("version conflict")

	// ErrRoleMismatch means the acting role does not hold the task's
	// currently active approval level.
	ErrRoleMismatch = errors.New("role mismatch")

	// ErrInvalidTransition means the requested state change is not legal
	// from the entity's current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")
)

func VersionConflict(entity string, expected int) error {
	return fmt.Errorf("%s: expected version %d is stale: %w", entity, expected, ErrVersionConflict)
}

func RoleMismatch(role string, expected string) error {
	return fmt.Errorf("role %q cannot act, level is held by %q: %w", role, expected, ErrRoleMismatch)
}

func InvalidTransition(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidTransition)
}

func NotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}
