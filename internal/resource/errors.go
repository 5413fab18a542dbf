package resource

import (
	"errors"
	"fmt"
)

// ConfigErrorCode categorizes registration errors.
type ConfigErrorCode string

const (
	// ErrCodeSameNames indicates the plural equals the singular.
	ErrCodeSameNames ConfigErrorCode = "SAME_NAMES"

	// ErrCodeDuplicateName indicates a name is already used by another resource.
	ErrCodeDuplicateName ConfigErrorCode = "DUPLICATE_NAME"

	// ErrCodeEmptyName indicates a blank resource name.
	ErrCodeEmptyName ConfigErrorCode = "EMPTY_NAME"

	// ErrCodeMissingModel indicates the resource has no backing model.
	ErrCodeMissingModel ConfigErrorCode = "MISSING_MODEL"
)

// ConfigError reports an invalid resource registration.
type ConfigError struct {
	Code    ConfigErrorCode
	Name    string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (resource=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newConfigError(code ConfigErrorCode, name, message string) *ConfigError {
	return &ConfigError{Code: code, Name: name, Message: message}
}

// IsConfigError returns true if the error is a registration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
