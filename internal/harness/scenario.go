package harness

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docrest/internal/config"
	"github.com/roach88/docrest/internal/intercept"
)

// Scenario is a scripted conversation with a docrest server.
// Steps run in order against a fresh in-memory store whose document IDs
// are "doc-1", "doc-2", and so on.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// URLPath mounts the routes under a prefix. Defaults to "/".
	URLPath string `yaml:"url_path,omitempty"`

	// Resources are registered exactly as a config file would.
	Resources []config.ResourceConfig `yaml:"resources"`

	// Interceptors attach scripted hooks. Every hook is traced.
	Interceptors []InterceptorSpec `yaml:"interceptors,omitempty"`

	// Steps are the HTTP requests to send.
	Steps []Step `yaml:"steps"`

	// Assertions check the trace and the final store contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// InterceptorSpec scripts one hook registered for several events.
type InterceptorSpec struct {
	Resource string   `yaml:"resource"`
	Events   []string `yaml:"events"`

	// Fail makes the hook abort the wave with this message.
	Fail string `yaml:"fail,omitempty"`

	// Require aborts the wave when the submitted values lack this field.
	Require string `yaml:"require,omitempty"`

	// Set is merged into the submitted values.
	Set map[string]any `yaml:"set,omitempty"`
}

// Step is one HTTP request.
type Step struct {
	// Request is "METHOD /path", for example "POST /users".
	Request string `yaml:"request"`

	// Body is sent as the JSON object {"newResource": Body}.
	Body map[string]any `yaml:"body,omitempty"`

	// Form is sent as newResource[field] form values.
	Form map[string]string `yaml:"form,omitempty"`

	// XHR sets the X-Requested-With header.
	XHR bool `yaml:"xhr,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause checks a step's response.
type ExpectClause struct {
	Status int `yaml:"status"`

	// Location is compared against the redirect target.
	Location string `yaml:"location,omitempty"`

	// Flash is compared against the first flash message set by the response.
	Flash string `yaml:"flash,omitempty"`

	// Contains must appear in the response body.
	Contains string `yaml:"contains,omitempty"`
}

// Assertion checks the result after all steps ran.
type Assertion struct {
	Type string `yaml:"type"`

	// Events lists hook events for hook_order, as "resource:event".
	Events []string `yaml:"events,omitempty"`

	// Event names the hook event counted by hook_count, as "resource:event".
	Event string `yaml:"event,omitempty"`

	// Count is the expected count for hook_count and final_count.
	Count int `yaml:"count,omitempty"`

	// Resource and ID select a document for final_state and final_count.
	Resource string `yaml:"resource,omitempty"`
	ID       string `yaml:"id,omitempty"`

	// Expect holds field values the document must carry (subset match).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Absent asserts the document does not exist.
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion types.
const (
	AssertHookOrder  = "hook_order"
	AssertHookCount  = "hook_count"
	AssertFinalState = "final_state"
	AssertFinalCount = "final_count"
)

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Resources) == 0 {
		return fmt.Errorf("resources list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, ic := range s.Interceptors {
		if ic.Resource == "" {
			return fmt.Errorf("interceptors[%d]: resource is required", i)
		}
		if len(ic.Events) == 0 {
			return fmt.Errorf("interceptors[%d]: events list is required", i)
		}
		for _, ev := range ic.Events {
			if !intercept.Event(ev).Valid() {
				return fmt.Errorf("interceptors[%d]: unknown event %q", i, ev)
			}
		}
	}

	for i, step := range s.Steps {
		if _, _, err := splitRequest(step.Request); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Body != nil && step.Form != nil {
			return fmt.Errorf("steps[%d]: body and form are mutually exclusive", i)
		}
		if step.Expect != nil && step.Expect.Status == 0 {
			return fmt.Errorf("steps[%d].expect: status is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertHookOrder:
		if len(a.Events) < 2 {
			return fmt.Errorf("assertions[%d]: hook_order needs at least two events", index)
		}
	case AssertHookCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: hook_count requires event", index)
		}
	case AssertFinalState:
		if a.Resource == "" || a.ID == "" {
			return fmt.Errorf("assertions[%d]: final_state requires resource and id", index)
		}
		if a.Expect == nil && !a.Absent {
			return fmt.Errorf("assertions[%d]: final_state requires expect or absent", index)
		}
	case AssertFinalCount:
		if a.Resource == "" {
			return fmt.Errorf("assertions[%d]: final_count requires resource", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}

// splitRequest parses "METHOD /path".
func splitRequest(request string) (method, path string, err error) {
	method, path, ok := strings.Cut(strings.TrimSpace(request), " ")
	if !ok {
		return "", "", fmt.Errorf("request %q must be \"METHOD /path\"", request)
	}
	method = strings.ToUpper(method)
	path = strings.TrimSpace(path)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return "", "", fmt.Errorf("request %q: unsupported method %s", request, method)
	}
	if !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("request %q: path must start with /", request)
	}
	return method, path, nil
}
