package intercept

import (
	"errors"
	"fmt"
)

// UnknownResourceError is returned when hooks are registered for a
// resource that was never added to the registry.
type UnknownResourceError struct {
	Resource string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %q", e.Resource)
}

// UnknownEventError is returned when hooks are registered for an event
// outside the fixed lifecycle set.
type UnknownEventError struct {
	Event Event
}

func (e *UnknownEventError) Error() string {
	if e.Event == EventGetCollection {
		return fmt.Sprintf("event %q cannot be registered; register %q instead", e.Event, EventGet)
	}
	return fmt.Sprintf("unknown event %q", e.Event)
}

// InterceptorError reports that a hook signalled failure.
type InterceptorError struct {
	Resource string
	Event    Event
	Err      error
}

func (e *InterceptorError) Error() string {
	return fmt.Sprintf("interceptor %s/%s: %v", e.Resource, e.Event, e.Err)
}

func (e *InterceptorError) Unwrap() error {
	return e.Err
}

// IsUnknownResource returns true if err is, or wraps, an UnknownResourceError.
func IsUnknownResource(err error) bool {
	var ue *UnknownResourceError
	return errors.As(err, &ue)
}

// IsInterceptorError returns true if err is, or wraps, an InterceptorError.
func IsInterceptorError(err error) bool {
	var ie *InterceptorError
	return errors.As(err, &ie)
}
