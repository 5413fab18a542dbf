package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/docrest/internal/config"
	"github.com/roach88/docrest/internal/rest"
	"github.com/roach88/docrest/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Config string
	Listen string

	// Setup, when set, runs after the resources are registered and before
	// the server starts. Programs embedding the CLI attach interceptors here.
	Setup func(svc *rest.Service) error
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured resources over HTTP",
		Long: `Serve the resources of a config file over REST routes.

The store named in the config is opened (SQLite databases are created if
missing), every resource is registered, and the HTTP server runs until
SIGINT or SIGTERM.

Example:
  docrest serve --config docrest.yaml
  docrest serve --config docrest.yaml --listen 127.0.0.1:9000 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to config file (required)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides the config)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := setupLogging(opts.RootOptions)

	slog.Info("loading config", "path", opts.Config)
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load config", err)
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	slog.Info("opening store", "driver", cfg.Store.Driver)
	backend, err := cfg.OpenStore(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	svc, err := cfg.NewService(backend, rest.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to register resources", err)
	}
	if opts.Setup != nil {
		if err := opts.Setup(svc); err != nil {
			return WrapExitError(ExitFailure, "setup failed", err)
		}
	}
	slog.Info("resources registered", "count", len(svc.Registry().Resources()))

	srv := server.New(svc, server.Options{
		Views:  cfg.Views,
		Logger: logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d resource(s) on %s\n", len(svc.Registry().Resources()), cfg.Listen)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := srv.Run(ctx, cfg.Listen); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
