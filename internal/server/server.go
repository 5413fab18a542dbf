package server

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/docrest/internal/rest"
)

// ErrorHandler answers a request whose action failed.
type ErrorHandler func(c *gin.Context, err error)

// Options configures a Server.
type Options struct {
	// Views is a glob of HTML templates loaded into the engine.
	Views string

	// Templates, when set, is used instead of Views.
	Templates *template.Template

	// ErrorHandler replaces DefaultErrorHandler.
	ErrorHandler ErrorHandler

	// Logger receives the access log. Defaults to slog.Default().
	Logger *slog.Logger

	// ShutdownTimeout bounds graceful shutdown in Run. Defaults to 10s.
	ShutdownTimeout time.Duration
}

// Server serves the REST routes of a rest.Service over gin.
type Server struct {
	svc    *rest.Service
	engine *gin.Engine
	opts   Options
	html   bool
}

// New creates a server and registers its routes.
func New(svc *rest.Service, opts Options) *Server {
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = DefaultErrorHandler
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	engine := gin.New()
	engine.Use(accessLog(opts.Logger), gin.Recovery())

	s := &Server{svc: svc, engine: engine, opts: opts}
	switch {
	case opts.Templates != nil:
		engine.SetHTMLTemplate(opts.Templates)
		s.html = true
	case opts.Views != "":
		engine.LoadHTMLGlob(opts.Views)
		s.html = true
	}

	s.register()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Engine returns the underlying gin engine, for mounting extra routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.opts.Logger.Info("server stopped")
	return nil
}

// DefaultErrorHandler maps err to a status code and writes it as JSON for
// XHR requests and as plain text otherwise.
func DefaultErrorHandler(c *gin.Context, err error) {
	status := StatusOf(err)
	if isXHR(c) {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.String(status, err.Error())
}
