package apns

import (
	"errors"
	"fmt"
)

// Identity errors. Returned while building a Configuration, never from Send.
var (
	ErrIdentityMissing     = errors.New("apns: a certificate is required to connect to APNs")
	ErrUntrustedIssuer     = errors.New("apns: certificate does not appear to be issued by Apple")
	ErrNotAPushCertificate = errors.New("apns: certificate is not valid for connecting to APNs")
	ErrEnvironmentMismatch = errors.New("apns: certificate environment does not match the selected server environment")
)

// Validation errors. Surfaced as failed Outcomes wrapped in a *ValidationError.
var (
	ErrBodyMustBeAbsent = errors.New("body must not be set")
	ErrSoundRequired    = errors.New("sound required")
	ErrInvalidToken     = errors.New("invalid device token")
	ErrInvalidBadge     = errors.New("badge must not be negative")
)

// EnvironmentMismatchError names the environment a certificate is restricted to.
type EnvironmentMismatchError struct {
	Expected Environment
	Actual   Environment
}

func (e *EnvironmentMismatchError) Error() string {
	return fmt.Sprintf("apns: certificate is only valid for the %s server but %s was selected", e.Expected, e.Actual)
}

func (e *EnvironmentMismatchError) Is(target error) bool {
	return target == ErrEnvironmentMismatch
}

// ValidationError reports why a notification could not be turned into a wire payload.
type ValidationError struct {
	Notification *Notification
	Err          error
}

func (e *ValidationError) Error() string {
	return "apns: invalid notification: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConnectionError is returned when a channel to the gateway cannot be opened.
type ConnectionError struct {
	Endpoint Endpoint
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("apns: failed to open channel to %s: %v", e.Endpoint.URL(), e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
