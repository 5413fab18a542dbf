package testutil

import (
	"context"
	"sync"

	"github.com/roach88/docrest/internal/intercept"
	"github.com/roach88/docrest/internal/store"
)

// Call is one recorded hook invocation.
type Call struct {
	Resource string
	Event    intercept.Event
	Values   map[string]any
	DocID    string
	Err      error
}

// HookRecorder builds hooks that record their invocations.
//
// Thread-safety: safe for concurrent use; Async hooks record from their
// own goroutines.
type HookRecorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewHookRecorder creates an empty recorder.
func NewHookRecorder() *HookRecorder {
	return &HookRecorder{}
}

// Hook returns a synchronous hook that records the call and then calls
// done(err).
func (h *HookRecorder) Hook(err error) intercept.Hook {
	return func(info *intercept.Info, done intercept.DoneFunc, env intercept.Env) {
		h.record(info, env)
		done(err)
	}
}

// Async returns a hook that records the call and calls done(err) from a
// separate goroutine.
func (h *HookRecorder) Async(err error) intercept.Hook {
	return intercept.Async(func(ctx context.Context, info *intercept.Info, env intercept.Env) error {
		h.record(info, env)
		return err
	})
}

func (h *HookRecorder) record(info *intercept.Info, env intercept.Env) {
	c := Call{Resource: env.Resource, Event: env.Event, Err: info.Err}
	if info.Values != nil {
		c.Values = make(map[string]any, len(info.Values))
		for k, v := range info.Values {
			c.Values[k] = v
		}
	}
	if info.Doc != nil {
		c.DocID = info.Doc.ID
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, c)
}

// Calls returns a copy of the recorded invocations in arrival order.
func (h *HookRecorder) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// Events returns the event of each recorded invocation in arrival order.
func (h *HookRecorder) Events() []intercept.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]intercept.Event, len(h.calls))
	for i, c := range h.calls {
		events[i] = c.Event
	}
	return events
}

// FailingModel wraps a store.Model and fails the selected operations.
type FailingModel struct {
	store.Model

	// SaveErr, when set, is returned by Save instead of saving.
	SaveErr error

	// RemoveErr, when set, is returned by Remove instead of removing.
	RemoveErr error

	// ExecErr, when set, is returned by every query's Exec.
	ExecErr error
}

func (m *FailingModel) Save(ctx context.Context, doc *store.Document) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	return m.Model.Save(ctx, doc)
}

func (m *FailingModel) Remove(ctx context.Context, doc *store.Document) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	return m.Model.Remove(ctx, doc)
}

func (m *FailingModel) Find() store.Query {
	return &failingQuery{Query: m.Model.Find(), err: m.ExecErr}
}

type failingQuery struct {
	store.Query
	err error
}

func (q *failingQuery) Sort(spec *store.SortSpec) store.Query {
	return &failingQuery{Query: q.Query.Sort(spec), err: q.err}
}

func (q *failingQuery) Exec(ctx context.Context) ([]*store.Document, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.Query.Exec(ctx)
}
