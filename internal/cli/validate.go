package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
}

// ValidationResult is the validate command's success payload.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Resources int    `json:"resources"`
	Driver    string `json:"driver"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("Config valid: %d resource(s), store driver %s", r.Resources, r.Driver)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a docrest config file without opening the store.

The file is checked against the config schema, decoded, and its resources
are registered against an in-memory store to catch duplicate names.

Example:
  docrest validate --config docrest.yaml
  docrest validate --config docrest.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.VerboseLog("Validating %s", opts.Config)

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		code, details := configFailure(err)
		if outErr := formatter.Error(code, err.Error(), details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	return formatter.Success(ValidationResult{
		Valid:     true,
		Resources: len(cfg.Resources),
		Driver:    cfg.Store.Driver,
	})
}
