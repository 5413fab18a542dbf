package testutil

import "sync"

// Flash is one recorded flash message.
type Flash struct {
	Kind    string
	Message string
}

// Rendered is one recorded Render call.
type Rendered struct {
	View string
	Data map[string]any
}

// RecordingResponder records every response an action produces.
//
// It satisfies rest.Responder. Thread-safety: all methods are safe for
// concurrent use; hooks may respond from their own goroutines.
type RecordingResponder struct {
	mu        sync.Mutex
	renders   []Rendered
	sent      []any
	redirects []string
	flashes   []Flash
	failures  []error
}

// NewRecordingResponder creates an empty recorder.
func NewRecordingResponder() *RecordingResponder {
	return &RecordingResponder{}
}

func (r *RecordingResponder) Render(view string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, Rendered{View: view, Data: data})
}

func (r *RecordingResponder) Send(body any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, body)
}

func (r *RecordingResponder) Redirect(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, url)
}

func (r *RecordingResponder) Flash(kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flashes = append(r.flashes, Flash{Kind: kind, Message: message})
}

func (r *RecordingResponder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

// Renders returns a copy of the recorded Render calls.
func (r *RecordingResponder) Renders() []Rendered {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Rendered(nil), r.renders...)
}

// Sent returns a copy of the recorded Send bodies.
func (r *RecordingResponder) Sent() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.sent...)
}

// Redirects returns a copy of the recorded redirect URLs.
func (r *RecordingResponder) Redirects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.redirects...)
}

// Flashes returns a copy of the recorded flash messages.
func (r *RecordingResponder) Flashes() []Flash {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Flash(nil), r.flashes...)
}

// Failures returns a copy of the errors passed to Fail.
func (r *RecordingResponder) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.failures...)
}

// Responses returns the total number of Render, Send, Redirect and Fail
// calls. Flash is not counted; it always accompanies another response.
func (r *RecordingResponder) Responses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.renders) + len(r.sent) + len(r.redirects) + len(r.failures)
}
