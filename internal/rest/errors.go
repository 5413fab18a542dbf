package rest

import (
	"errors"
	"fmt"

	"github.com/roach88/docrest/internal/intercept"
)

// ValidationError reports a request without the required payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// errNothingSubmitted is returned by create and update when the request
// carries no newResource values.
func errNothingSubmitted() error {
	return &ValidationError{Field: ValuesField, Message: "Nothing submitted."}
}

// Action names the store mutation an ActionError came from.
type Action string

const (
	ActionInsert Action = "insert"
	ActionSave   Action = "save"
	ActionDelete Action = "delete"
)

// ActionError is the error surfaced to clients when a mutation fails,
// whether in a hook, in validation or in the store. A hook failure is
// reported by its cause alone; the InterceptorError stays in the chain.
type ActionError struct {
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("Unable to %s the record: %v", e.Action, causeOf(e.Err))
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// causeOf strips the InterceptorError around a hook failure so clients
// see the hook's own message.
func causeOf(err error) error {
	var ie *intercept.InterceptorError
	if errors.As(err, &ie) && ie.Err != nil {
		return ie.Err
	}
	return err
}

// IsValidationError returns true if err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsActionError returns true if err is, or wraps, an ActionError.
func IsActionError(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}
