package orders

import (
	"errors"
	"fmt"
)

// ErrTransitionNotAllowed is returned when the lifecycle table has no entry for
// the requested (status, event) pair.
var ErrTransitionNotAllowed = errors.New("order status transition not allowed")

// ValidationError reports bad or missing client input. It is raised before
// any external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthError reports a missing or wrong admin key or webhook signature. The
// reason never contains the credential itself.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "unauthorized: " + e.Reason
}

// UpstreamError wraps a failed store or provider call. Provider is set when
// the failing dependency is an external API rather than the order store.
type UpstreamError struct {
	Op       string
	Provider bool
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a referenced order that does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.ID)
}

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

func providerFailure(op string, err error) error {
	return &UpstreamError{Op: op, Provider: true, Err: err}
}
