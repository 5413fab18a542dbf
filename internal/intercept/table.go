package intercept

import (
	"sync"

	"github.com/roach88/docrest/internal/resource"
)

// Resolver resolves either resource name to the registered resource.
// Implemented by *resource.Registry.
type Resolver interface {
	Lookup(name string) (*resource.Resource, bool)
}

// Table stores the hooks of every (resource, event) pair.
//
// Hooks are keyed by the resource's singular name, so registering with
// either name lands in the same list. Lists only grow; insertion order is
// invocation order.
type Table struct {
	mu       sync.RWMutex
	resolver Resolver
	hooks    map[string]map[Event][]Hook
}

// NewTable creates an empty table bound to a resource resolver.
func NewTable(resolver Resolver) *Table {
	return &Table{
		resolver: resolver,
		hooks:    make(map[string]map[Event][]Hook),
	}
}

// Add appends hook to the list of each given event for the resource.
//
// Returns *UnknownResourceError if the resource is not registered and
// *UnknownEventError for events outside the lifecycle set. Nothing is
// added when an error is returned.
func (t *Table) Add(resourceName string, hook Hook, events ...Event) error {
	res, ok := t.resolver.Lookup(resourceName)
	if !ok {
		return &UnknownResourceError{Resource: resourceName}
	}
	for _, e := range events {
		if !e.Valid() {
			return &UnknownEventError{Event: e}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	byEvent := t.hooks[res.SingularName]
	if byEvent == nil {
		byEvent = make(map[Event][]Hook)
		t.hooks[res.SingularName] = byEvent
	}
	for _, e := range events {
		byEvent[e] = append(byEvent[e], hook)
	}
	return nil
}

// Hooks returns the hooks registered for the pair, or nil.
// The returned slice must not be modified.
func (t *Table) Hooks(resourceName string, event Event) []Hook {
	res, ok := t.resolver.Lookup(resourceName)
	if !ok {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	hooks := t.hooks[res.SingularName][event]
	// Cap the slice so a later Add cannot write into a caller's view.
	return hooks[:len(hooks):len(hooks)]
}

// Count returns how many hooks are registered for the pair.
func (t *Table) Count(resourceName string, event Event) int {
	return len(t.Hooks(resourceName, event))
}
