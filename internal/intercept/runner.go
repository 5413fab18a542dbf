package intercept

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/docrest/internal/store"
)

// Runner executes the hooks of a (resource, event) pair as one wave.
//
// Every hook of a wave is dispatched without waiting for the previous
// one to call done. The wave finishes when all hooks were dispatched and
// all called done(nil), or at the first done(err). onFinish is called
// exactly once per Run.
type Runner struct {
	table  *Table
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for wave diagnostics.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner over table.
func NewRunner(table *Table, opts ...RunnerOption) *Runner {
	r := &Runner{
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the hook table the runner reads from.
func (r *Runner) Table() *Table {
	return r.table
}

// Run executes the wave for (resourceName, event) and reports the result
// through onFinish. The error handed to onFinish is the one the first
// failing hook passed to done, unwrapped.
//
// EventGetCollection runs the EventGet hooks once per document of
// info.Docs, each call with a fresh Info holding only that document.
// Once a hook fails no further invocations are dispatched; hooks already
// in flight may still call done, which is then ignored.
func (r *Runner) Run(resourceName string, event Event, info *Info, env Env, onFinish func(error)) {
	stored := event
	if event == EventGetCollection {
		stored = EventGet
	}

	hooks := r.table.Hooks(resourceName, stored)
	if len(hooks) == 0 {
		onFinish(nil)
		return
	}

	if res, ok := r.table.resolver.Lookup(resourceName); ok {
		env.Resource = res.SingularName
	}
	env.Event = event

	w := &wave{
		resource: env.Resource,
		event:    event,
		started:  time.Now(),
		logger:   r.logger,
		onFinish: onFinish,
	}

	if event == EventGetCollection {
		dispatchPerDocument(w, hooks, info.Docs, env)
	} else {
		dispatch(w, hooks, info, env)
	}
	w.doneInvoking()
}

// Wait runs the wave and blocks until it finishes or ctx ends.
// A hook failure is returned as *InterceptorError. When ctx ends first
// the wave keeps running in the background and its result is discarded.
func (r *Runner) Wait(ctx context.Context, resourceName string, event Event, info *Info, env Env) error {
	if env.Context == nil {
		env.Context = ctx
	}

	result := make(chan error, 1)
	r.Run(resourceName, event, info, env, func(err error) {
		result <- err
	})

	name := resourceName
	if res, ok := r.table.resolver.Lookup(resourceName); ok {
		name = res.SingularName
	}

	select {
	case err := <-result:
		if err != nil {
			return &InterceptorError{Resource: name, Event: event, Err: err}
		}
		return nil
	case <-ctx.Done():
		r.logger.Warn("interceptor wave abandoned",
			"resource", name, "event", event, "error", ctx.Err())
		return ctx.Err()
	}
}

func dispatch(w *wave, hooks []Hook, info *Info, env Env) {
	for _, hook := range hooks {
		if !w.claim() {
			return
		}
		hook(info, w.doneFunc(), env)
	}
}

func dispatchPerDocument(w *wave, hooks []Hook, docs []*store.Document, env Env) {
	for _, hook := range hooks {
		for _, doc := range docs {
			if !w.claim() {
				return
			}
			hook(&Info{Doc: doc}, w.doneFunc(), env)
		}
	}
}

// wave tracks one Run. All counters are guarded by mu because done may
// be called from any goroutine, including synchronously from inside the
// dispatch loop.
type wave struct {
	mu        sync.Mutex
	invoked   int
	completed int
	invoking  bool // true once the dispatch loop has ended
	failed    bool
	finished  bool

	resource string
	event    Event
	started  time.Time
	logger   *slog.Logger
	onFinish func(error)
}

// claim reserves the next invocation. Returns false once the wave failed.
func (w *wave) claim() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failed {
		return false
	}
	w.invoked++
	return true
}

// doneFunc returns the done callback for one invocation. A second call
// from the same hook is ignored.
func (w *wave) doneFunc() DoneFunc {
	var once sync.Once
	return func(err error) {
		once.Do(func() { w.complete(err) })
	}
}

func (w *wave) complete(err error) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return
	}
	if err != nil {
		w.failed = true
		w.finished = true
		w.mu.Unlock()
		w.finish(err)
		return
	}
	w.completed++
	fire := w.invoking && w.completed == w.invoked
	if fire {
		w.finished = true
	}
	w.mu.Unlock()

	if fire {
		w.finish(nil)
	}
}

// doneInvoking marks the end of dispatch. If every hook already called
// done, the wave finishes here.
func (w *wave) doneInvoking() {
	w.mu.Lock()
	w.invoking = true
	fire := !w.finished && w.completed == w.invoked
	if fire {
		w.finished = true
	}
	w.mu.Unlock()

	if fire {
		w.finish(nil)
	}
}

func (w *wave) finish(err error) {
	w.mu.Lock()
	invoked := w.invoked
	w.mu.Unlock()

	w.logger.Debug("interceptor wave finished",
		"resource", w.resource,
		"event", w.event,
		"invocations", invoked,
		"duration", time.Since(w.started),
		"error", err,
	)
	w.onFinish(err)
}
