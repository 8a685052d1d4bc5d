package api

import (
	"errors"
	"fmt"
)

// AuthError reports a missing or rejected credential. It is fatal to the
// operation that hit it: the caller must discard the held credential and
// treat the session as logged out. Never retried.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unauthorized: %s", e.Message)
	}
	return "unauthorized"
}

// BackendError reports a non-2xx structured response from a data endpoint.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// ChatTurnError reports a failed chat request. The user message stays in the
// transcript; no decision is recorded from a failed turn.
type ChatTurnError struct {
	Err error
}

func (e *ChatTurnError) Error() string {
	return fmt.Sprintf("chat turn failed: %v", e.Err)
}

func (e *ChatTurnError) Unwrap() error { return e.Err }

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
