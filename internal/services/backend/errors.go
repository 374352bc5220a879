package backend

import (
	"errors"
	"fmt"
)

// AuthError reports an authentication failure from the backend. Loads that
// fail with an AuthError are surfaced immediately and never retried.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Message)
}

// TransportError reports a transient network-level failure: connection
// errors, timeouts and 5xx responses. These are the only errors the loader
// retries.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is worth retrying with backoff
func Retryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsAuth reports whether err is an authentication failure
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
