package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/docrest/internal/rest"
	"github.com/roach88/docrest/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nHooks:\n")
		for _, ev := range e.Trace {
			if ev.Type == TraceHook {
				fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.key(), ev.DocID)
			}
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(ctx context.Context, trace []TraceEvent, assertions []Assertion, svc *rest.Service) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertHookOrder:
			err = assertHookOrder(trace, a)
		case AssertHookCount:
			err = assertHookCount(trace, a)
		case AssertFinalState:
			err = assertFinalState(ctx, svc, a)
		case AssertFinalCount:
			err = assertFinalCount(ctx, svc, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}

// assertHookOrder checks that the events appear in order. Other hooks may
// run in between.
func assertHookOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next == len(a.Events) {
			break
		}
		if ev.Type == TraceHook && ev.key() == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertHookOrder,
		Expected: strings.Join(a.Events, " -> "),
		Actual:   fmt.Sprintf("%s not found after %s", a.Events[next], strings.Join(a.Events[:next], " -> ")),
		Trace:    trace,
	}
}

func assertHookCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Type == TraceHook && ev.key() == a.Event {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertHookCount,
		Expected: fmt.Sprintf("%d call(s) of %s", a.Count, a.Event),
		Actual:   fmt.Sprintf("%d call(s)", count),
		Trace:    trace,
	}
}

func assertFinalState(ctx context.Context, svc *rest.Service, a Assertion) error {
	res, ok := svc.Registry().Lookup(a.Resource)
	if !ok {
		return fmt.Errorf("unknown resource %q", a.Resource)
	}

	doc, err := res.Model.FindOne(ctx, a.ID)
	if store.IsNotFound(err) {
		if a.Absent {
			return nil
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %s with %v", a.Resource, a.ID, a.Expect),
			Actual:   "not found",
		}
	}
	if err != nil {
		return err
	}
	if a.Absent {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %s absent", a.Resource, a.ID),
			Actual:   fmt.Sprintf("found %v", doc.Fields),
		}
	}

	for field, want := range a.Expect {
		got, ok := doc.Get(field)
		if !ok || !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.ID, field, want),
				Actual:   fmt.Sprintf("%v", doc.Fields),
			}
		}
	}
	return nil
}

func assertFinalCount(ctx context.Context, svc *rest.Service, a Assertion) error {
	res, ok := svc.Registry().Lookup(a.Resource)
	if !ok {
		return fmt.Errorf("unknown resource %q", a.Resource)
	}
	docs, err := res.Model.Find().Exec(ctx)
	if err != nil {
		return err
	}
	if len(docs) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalCount,
		Expected: fmt.Sprintf("%d %s", a.Count, res.PluralName),
		Actual:   fmt.Sprintf("%d", len(docs)),
	}
}

// valuesEqual compares a stored value with one decoded from YAML. JSON
// request bodies store numbers as float64 while YAML yields int.
func valuesEqual(got, want any) bool {
	if g, ok := toFloat(got); ok {
		if w, ok := toFloat(want); ok {
			return g == w
		}
	}
	return reflect.DeepEqual(got, want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
