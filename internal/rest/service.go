package rest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/docrest/internal/intercept"
	"github.com/roach88/docrest/internal/resource"
	"github.com/roach88/docrest/internal/store"
)

// DefaultURLPath is the prefix of all resource routes.
const DefaultURLPath = "/"

// Service runs the CRUD actions of every registered resource.
type Service struct {
	registry    *resource.Registry
	runner      *intercept.Runner
	urlPath     string
	hookTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithURLPath sets the route prefix. A trailing slash is added if missing.
func WithURLPath(p string) Option {
	return func(s *Service) {
		s.urlPath = p
	}
}

// WithHookTimeout bounds every hook wave. Zero means no bound.
func WithHookTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.hookTimeout = d
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a service over registry. Hooks are read from a table
// bound to the same registry.
func NewService(registry *resource.Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		urlPath:  DefaultURLPath,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.urlPath = normalizeURLPath(s.urlPath)
	s.runner = intercept.NewRunner(intercept.NewTable(registry), intercept.WithLogger(s.logger))
	return s
}

// AddResource registers a resource. See resource.Registry.Register.
func (s *Service) AddResource(singular string, model store.Model, opts *resource.Options) (*resource.Resource, error) {
	return s.registry.Register(singular, model, opts)
}

// AddInterceptor attaches hook to the given events of a resource.
func (s *Service) AddInterceptor(resourceName string, hook intercept.Hook, events ...intercept.Event) error {
	return s.runner.Table().Add(resourceName, hook, events...)
}

// Registry returns the resource registry.
func (s *Service) Registry() *resource.Registry {
	return s.registry
}

// Runner returns the hook runner.
func (s *Service) Runner() *intercept.Runner {
	return s.runner
}

// URLPath returns the normalized route prefix, always ending in "/".
func (s *Service) URLPath() string {
	return s.urlPath
}

// CollectionURL returns the collection URL for a resource name.
func (s *Service) CollectionURL(name string) string {
	return s.urlPath + name
}

// EntityURL returns the entity URL for a resource name and document id.
func (s *Service) EntityURL(name, id string) string {
	return s.urlPath + name + "/" + id
}

func normalizeURLPath(p string) string {
	if p == "" {
		return DefaultURLPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// wait runs one hook wave and blocks until it finishes.
func (s *Service) wait(ctx context.Context, req *Request, event intercept.Event, info *intercept.Info) error {
	if s.hookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.hookTimeout)
		defer cancel()
	}
	env := intercept.Env{Context: ctx, Request: req.HTTP}
	return s.runner.Wait(ctx, req.ResourceName, event, info, env)
}

// fail is the shared error branch of the mutations: it records cause on
// info, runs the error hooks, then renders the wrapped error. A failing
// error wave is logged and does not replace cause.
func (s *Service) fail(ctx context.Context, res *resource.Resource, req *Request, w Responder,
	action Action, event intercept.Event, info *intercept.Info, cause error) {
	info.Err = cause
	if err := s.wait(ctx, req, event, info); err != nil {
		s.logger.Warn("error hooks failed",
			"resource", res.SingularName,
			"event", event,
			"error", err,
			"cause", cause,
		)
	}
	s.renderError(res, req, w, &ActionError{Action: action, Err: cause})
}

func (s *Service) xhr(res *resource.Resource, req *Request) bool {
	return res.EnableXHR && req.XHR
}

func (s *Service) renderError(res *resource.Resource, req *Request, w Responder, err error) {
	s.logger.Debug("action failed", "resource", res.SingularName, "error", err)
	if s.xhr(res, req) {
		w.Send(map[string]any{"error": err.Error()})
		return
	}
	w.Fail(err)
}

func (s *Service) renderCollection(res *resource.Resource, req *Request, w Responder, docs []*store.Document) {
	views := make([]map[string]any, len(docs))
	for i, doc := range docs {
		views[i] = doc.MarshalView()
	}
	if s.xhr(res, req) {
		w.Send(map[string]any{"docs": views})
		return
	}
	w.Render(res.CollectionView(), map[string]any{
		res.Render.CollectionDataName: views,
		"site":                         req.ResourceName + "-list",
		"title":                        res.Title,
	})
}

func (s *Service) renderEntity(res *resource.Resource, req *Request, w Responder, doc *store.Document) {
	if s.xhr(res, req) {
		w.Send(map[string]any{"doc": doc.MarshalView()})
		return
	}
	w.Render(res.EntityView(), map[string]any{
		res.Render.EntityDataName: doc.MarshalView(),
		"site":                    req.ResourceName + "-show",
		"title":                   res.Title,
	})
}

// succeed finishes a mutation: JSON clients get the document, browsers
// get a flash message and a redirect.
func (s *Service) succeed(res *resource.Resource, req *Request, w Responder, doc *store.Document, message, url string) {
	if s.xhr(res, req) {
		w.Send(map[string]any{"doc": doc.MarshalView()})
		return
	}
	w.Flash(FlashSuccess, message)
	w.Redirect(url)
}
