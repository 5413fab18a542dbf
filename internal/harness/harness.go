package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/roach88/docrest/internal/config"
	"github.com/roach88/docrest/internal/intercept"
	"github.com/roach88/docrest/internal/rest"
	"github.com/roach88/docrest/internal/server"
	"github.com/roach88/docrest/internal/store"
)

// Trace event types.
const (
	TraceRequest = "request"
	TraceHook    = "hook"
)

// TraceEvent is one request or hook invocation, in the order they happened.
type TraceEvent struct {
	Seq      int    `json:"seq"`
	Type     string `json:"type"`
	Request  string `json:"request,omitempty"`
	Status   int    `json:"status,omitempty"`
	Location string `json:"location,omitempty"`
	Resource string `json:"resource,omitempty"`
	Event    string `json:"event,omitempty"`
	DocID    string `json:"doc_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// key is the "resource:event" form used by assertions.
func (e TraceEvent) key() string {
	return e.Resource + ":" + e.Event
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness holds the state of one scenario run.
type Harness struct {
	svc     *rest.Service
	handler http.Handler
	cookies map[string]*http.Cookie

	mu     sync.Mutex
	result *Result
}

// Run executes a scenario against a fresh server and returns its result.
// The returned error reports harness failures, such as a resource that
// cannot be registered; failed expectations land in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	if scenario.URLPath != "" {
		cfg.URLPath = scenario.URLPath
	}
	cfg.Resources = scenario.Resources

	backend := config.MemoryBackend(store.WithMemoryIDs(store.NewFixedGenerator()))
	svc, err := cfg.NewService(backend, rest.WithLogger(discard))
	if err != nil {
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}

	h := &Harness{
		svc:     svc,
		cookies: make(map[string]*http.Cookie),
		result:  NewResult(),
	}

	for i, ic := range scenario.Interceptors {
		events := make([]intercept.Event, len(ic.Events))
		for j, ev := range ic.Events {
			events[j] = intercept.Event(ev)
		}
		if err := svc.AddInterceptor(ic.Resource, h.hook(ic), events...); err != nil {
			return nil, fmt.Errorf("interceptors[%d]: %w", i, err)
		}
	}

	gin.SetMode(gin.TestMode)
	h.handler = server.New(svc, server.Options{Logger: discard}).Handler()

	for i, step := range scenario.Steps {
		if err := h.executeStep(i, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	ctx := context.Background()
	for _, msg := range EvaluateAssertions(ctx, h.result.Trace, scenario.Assertions, svc) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// hook builds the scripted interceptor for spec. Every call is traced.
func (h *Harness) hook(spec InterceptorSpec) intercept.Hook {
	return intercept.Func(func(info *intercept.Info, env intercept.Env) error {
		var err error
		switch {
		case spec.Fail != "":
			err = errors.New(spec.Fail)
		case spec.Require != "":
			if _, ok := info.Values[spec.Require]; !ok {
				err = fmt.Errorf("%s is required", spec.Require)
			}
		}
		if err == nil && len(spec.Set) > 0 {
			if info.Values == nil {
				info.Values = make(map[string]any, len(spec.Set))
			}
			for k, v := range spec.Set {
				info.Values[k] = v
			}
		}

		ev := TraceEvent{Type: TraceHook, Resource: env.Resource, Event: string(env.Event)}
		if info.Doc != nil {
			ev.DocID = info.Doc.ID
		}
		if err != nil {
			ev.Error = err.Error()
		}
		h.trace(ev)
		return err
	})
}

func (h *Harness) trace(ev TraceEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev.Seq = len(h.result.Trace) + 1
	h.result.Trace = append(h.result.Trace, ev)
	return len(h.result.Trace) - 1
}

func (h *Harness) executeStep(index int, step Step) error {
	method, path, err := splitRequest(step.Request)
	if err != nil {
		return err
	}

	req, err := newHTTPRequest(method, path, step)
	if err != nil {
		return err
	}
	for _, c := range h.cookies {
		req.AddCookie(c)
	}

	at := h.trace(TraceEvent{Type: TraceRequest, Request: method + " " + path})
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	h.mu.Lock()
	h.result.Trace[at].Status = resp.StatusCode
	h.result.Trace[at].Location = location
	h.mu.Unlock()

	var flashes []server.FlashMessage
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(h.cookies, c.Name)
			continue
		}
		h.cookies[c.Name] = c
		if c.Name == server.FlashCookie {
			flashes = server.DecodeFlash(c.Value)
		}
	}

	if step.Expect == nil {
		return nil
	}
	body := rec.Body.String()
	prefix := fmt.Sprintf("step %d (%s)", index, step.Request)
	if resp.StatusCode != step.Expect.Status {
		h.result.AddError(fmt.Sprintf("%s: expected status %d, got %d", prefix, step.Expect.Status, resp.StatusCode))
	}
	if step.Expect.Location != "" && location != step.Expect.Location {
		h.result.AddError(fmt.Sprintf("%s: expected location %q, got %q", prefix, step.Expect.Location, location))
	}
	if step.Expect.Flash != "" {
		got := ""
		if len(flashes) > 0 {
			got = flashes[0].Message
		}
		if got != step.Expect.Flash {
			h.result.AddError(fmt.Sprintf("%s: expected flash %q, got %q", prefix, step.Expect.Flash, got))
		}
	}
	if step.Expect.Contains != "" && !strings.Contains(body, step.Expect.Contains) {
		h.result.AddError(fmt.Sprintf("%s: body does not contain %q: %s", prefix, step.Expect.Contains, body))
	}
	return nil
}

func newHTTPRequest(method, path string, step Step) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case step.Body != nil:
		raw, err := json.Marshal(map[string]any{rest.ValuesField: step.Body})
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	case step.Form != nil:
		form := url.Values{}
		for k, v := range step.Form {
			if k == server.MethodField {
				form.Set(k, v)
				continue
			}
			form.Set(rest.ValuesField+"["+k+"]", v)
		}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if step.XHR {
		req.Header.Set(server.XHRHeader, "XMLHttpRequest")
	}
	return req, nil
}
