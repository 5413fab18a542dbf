package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped) when a document lookup has no match.
var ErrNotFound = errors.New("document not found")

// StoreError reports a failed store operation.
type StoreError struct {
	// Op is the operation that failed: "find", "find_one", "save" or "remove".
	Op string

	// Collection is the collection the operation ran against.
	Collection string

	// Err is the backend error.
	Err error
}

func (e *StoreError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrap returns nil for a nil err so call sites can wrap unconditionally.
func wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// Wrap is the exported form of wrap for backends in sub-packages.
func Wrap(op, collection string, err error) error {
	return wrap(op, collection, err)
}

// IsStoreError returns true if err is, or wraps, a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsNotFound returns true if err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
