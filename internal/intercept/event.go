package intercept

import (
	"context"
	"net/http"

	"github.com/roach88/docrest/internal/store"
)

// Event names a point in a CRUD action's lifecycle.
type Event string

const (
	// EventGet fires before an entity is rendered, and once per document
	// when a collection is listed.
	EventGet Event = "get"

	// EventGetCollection is the pseudo event for collection reads. It is
	// never stored: the runner fans it out to the EventGet hooks, once per
	// document.
	EventGetCollection Event = "get-collection"

	EventPost        Event = "post"
	EventPostSuccess Event = "post.success"
	EventPostError   Event = "post.error"

	EventPut        Event = "put"
	EventPutSuccess Event = "put.success"
	EventPutError   Event = "put.error"

	EventDelete        Event = "delete"
	EventDeleteSuccess Event = "delete.success"
	EventDeleteError   Event = "delete.error"
)

// registrable lists the events hooks can be attached to.
var registrable = map[Event]bool{
	EventGet:           true,
	EventPost:          true,
	EventPostSuccess:   true,
	EventPostError:     true,
	EventPut:           true,
	EventPutSuccess:    true,
	EventPutError:      true,
	EventDelete:        true,
	EventDeleteSuccess: true,
	EventDeleteError:   true,
}

// Events returns every registrable event in lifecycle order.
func Events() []Event {
	return []Event{
		EventGet,
		EventPost, EventPostSuccess, EventPostError,
		EventPut, EventPutSuccess, EventPutError,
		EventDelete, EventDeleteSuccess, EventDeleteError,
	}
}

// Valid reports whether hooks can be registered for e.
func (e Event) Valid() bool {
	return registrable[e]
}

// Info is the per-request record shared by every hook of one request.
// Hooks may mutate it; for example a post hook can replace Values.
//
//   - list:   Docs (each get hook sees its own Info with Doc set)
//   - create: Values, then Doc once built, Err in post.error
//   - fetch:  Doc
//   - update: Doc, Values, Err in put.error
//   - delete: Doc, Err in delete.error
type Info struct {
	Values map[string]any
	Doc    *store.Document
	Docs   []*store.Document
	Err    error
}

// Env carries the ambient arguments handed to every hook.
type Env struct {
	// Context is the request context.
	Context context.Context

	// Request is the HTTP request being served. Nil outside HTTP.
	Request *http.Request

	// Resource is the singular name of the resource. Set by the runner.
	Resource string

	// Event is the event being run. Set by the runner.
	Event Event
}

// DoneFunc signals that a hook finished. Pass a non-nil error to abort
// the wave. Calls after the first are ignored.
type DoneFunc func(err error)

// Hook is a user interceptor. It must call done exactly once, either
// before returning or later from any goroutine.
type Hook func(info *Info, done DoneFunc, env Env)

// Func adapts a synchronous function into a Hook.
func Func(fn func(info *Info, env Env) error) Hook {
	return func(info *Info, done DoneFunc, env Env) {
		done(fn(info, env))
	}
}

// Async adapts a function into a Hook that runs on its own goroutine,
// so the runner can dispatch the next hook without waiting.
func Async(fn func(ctx context.Context, info *Info, env Env) error) Hook {
	return func(info *Info, done DoneFunc, env Env) {
		ctx := env.Context
		if ctx == nil {
			ctx = context.Background()
		}
		go func() {
			done(fn(ctx, info, env))
		}()
	}
}
