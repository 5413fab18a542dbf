package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roach88/docrest/internal/rest"
	"github.com/roach88/docrest/internal/store"
)

// Route is one entry of the route table.
type Route struct {
	Method string
	Path   string
	Action string
	Entity bool
}

// Action names.
const (
	ActionList     = "list"
	ActionCreate   = "create"
	ActionFetch    = "fetch"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionOverride = "override"
)

// MethodField is the form field HTML forms use to tunnel PUT and DELETE
// through POST.
const MethodField = "_method"

const exchangeKey = "docrest.exchange"

// RouteTable returns the routes served under urlPath, which must end in "/".
func RouteTable(urlPath string) []Route {
	collection := urlPath + ":resource"
	entity := collection + "/:id"
	return []Route{
		{Method: http.MethodGet, Path: collection, Action: ActionList},
		{Method: http.MethodPost, Path: collection, Action: ActionCreate},
		{Method: http.MethodGet, Path: entity, Action: ActionFetch, Entity: true},
		{Method: http.MethodPut, Path: entity, Action: ActionUpdate, Entity: true},
		{Method: http.MethodDelete, Path: entity, Action: ActionDelete, Entity: true},
		{Method: http.MethodPost, Path: entity, Action: ActionOverride, Entity: true},
	}
}

// exchange is the per-request state shared by the handler chain.
type exchange struct {
	req     *rest.Request
	w       *responder
	handled bool
}

type action func(svc *rest.Service, ctx context.Context, req *rest.Request, w rest.Responder) bool

func (s *Server) register() {
	for _, rt := range RouteTable(s.svc.URLPath()) {
		chain := []gin.HandlerFunc{s.resolve}
		if rt.Entity {
			chain = append(chain, s.loadEntity)
		}
		chain = append(chain, s.handle(rt.Action))
		s.engine.Handle(rt.Method, rt.Path, chain...)
	}
}

// resolve builds the request for every resource route. When no action
// claims the request the chain ends with 404.
func (s *Server) resolve(c *gin.Context) {
	ex := &exchange{
		req: newRequest(c),
		w:   &responder{c: c, html: s.html, onFail: s.opts.ErrorHandler},
	}
	c.Set(exchangeKey, ex)
	c.Next()

	if !ex.handled && !c.Writer.Written() {
		c.String(http.StatusNotFound, "404 page not found")
	}
}

// loadEntity loads the document for entity routes. A failed load has
// already redirected the client and ends the chain.
func (s *Server) loadEntity(c *gin.Context) {
	ex := exchangeOf(c)
	if !s.svc.LoadEntity(c.Request.Context(), ex.req, ex.w) {
		c.Next()
		return
	}
	if ex.req.Doc == nil {
		ex.handled = true
		c.Abort()
	}
}

func (s *Server) handle(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ex := exchangeOf(c)
		fn := s.actionFor(name, c)
		if fn == nil {
			c.Next()
			return
		}
		ex.handled = fn(s.svc, c.Request.Context(), ex.req, ex.w)
		if !ex.handled {
			c.Next()
		}
	}
}

func (s *Server) actionFor(name string, c *gin.Context) action {
	switch name {
	case ActionList:
		return (*rest.Service).List
	case ActionCreate:
		return (*rest.Service).Create
	case ActionFetch:
		return (*rest.Service).Fetch
	case ActionUpdate:
		return (*rest.Service).Update
	case ActionDelete:
		return (*rest.Service).Delete
	case ActionOverride:
		switch strings.ToUpper(c.PostForm(MethodField)) {
		case http.MethodPut:
			return (*rest.Service).Update
		case http.MethodDelete:
			return (*rest.Service).Delete
		}
	}
	return nil
}

func exchangeOf(c *gin.Context) *exchange {
	return c.MustGet(exchangeKey).(*exchange)
}

// StatusOf maps an action error to an HTTP status code.
func StatusOf(err error) int {
	switch {
	case rest.IsValidationError(err):
		return http.StatusBadRequest
	case store.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
