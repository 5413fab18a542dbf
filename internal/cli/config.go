package cli

import (
	"errors"
	"io/fs"

	"github.com/roach88/docrest/internal/config"
	"github.com/roach88/docrest/internal/resource"
)

// configFailure classifies a config.Load error into an output code and
// optional details.
func configFailure(err error) (code string, details any) {
	var schemaErr *config.SchemaError
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &schemaErr):
		return ErrCodeSchema, schemaErr.Issues
	case errors.Is(err, config.ErrSyntax):
		return ErrCodeParseFailed, nil
	case errors.Is(err, config.ErrInvalid):
		return ErrCodeInvalid, nil
	case resource.IsConfigError(err):
		return ErrCodeResource, nil
	case errors.As(err, &pathErr):
		return ErrCodeReadFailed, nil
	default:
		return ErrCodeGeneric, nil
	}
}

// loadConfig reads path and checks that its resources register cleanly.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if _, err := cfg.NewService(config.MemoryBackend()); err != nil {
		return nil, err
	}
	return cfg, nil
}
