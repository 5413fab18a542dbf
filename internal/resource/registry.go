package resource

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/docrest/internal/store"
)

// Defaults is the registry-wide configuration. It overrides the built-in
// defaults and is overridden by per-resource Options.
type Defaults struct {
	EntityTemplate     string
	CollectionTemplate string
	EntityDataName     string
	CollectionDataName string
	EnableXHR          bool
	SingleView         bool
}

// BuiltinDefaults returns the defaults used when no configuration is given.
func BuiltinDefaults() Defaults {
	return Defaults{
		EntityTemplate:     DefaultEntityTemplate,
		CollectionTemplate: DefaultCollectionTemplate,
		EntityDataName:     DefaultEntityDataName,
		CollectionDataName: DefaultCollectionDataName,
		EnableXHR:          false,
		SingleView:         true,
	}
}

// Options are per-resource overrides. Zero values mean "not set".
type Options struct {
	PluralName         string
	Sort               *store.SortSpec
	EntityTemplate     string
	CollectionTemplate string
	EntityDataName     string
	CollectionDataName string
	EnableXHR          *bool
	SingleView         *bool
}

// Registry maps singular and plural names to resources.
//
// Thread-safety: Register is expected during setup and Lookup during
// traffic; both are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	defaults  Defaults
	byName    map[string]*Resource
	resources []*Resource
}

// NewRegistry creates an empty registry. Empty fields of defaults fall
// back to BuiltinDefaults; the boolean fields are taken as given.
func NewRegistry(defaults Defaults) *Registry {
	builtin := BuiltinDefaults()
	if defaults.EntityTemplate == "" {
		defaults.EntityTemplate = builtin.EntityTemplate
	}
	if defaults.CollectionTemplate == "" {
		defaults.CollectionTemplate = builtin.CollectionTemplate
	}
	if defaults.EntityDataName == "" {
		defaults.EntityDataName = builtin.EntityDataName
	}
	if defaults.CollectionDataName == "" {
		defaults.CollectionDataName = builtin.CollectionDataName
	}
	return &Registry{
		defaults: defaults,
		byName:   make(map[string]*Resource),
	}
}

// Register adds a resource served by model.
//
// The plural defaults to singular + "s". Returns a *ConfigError when the
// names are empty, equal, or already taken by another resource.
func (r *Registry) Register(singular string, model store.Model, opts *Options) (*Resource, error) {
	if opts == nil {
		opts = &Options{}
	}

	singular = normalizeName(singular)
	if singular == "" {
		return nil, newConfigError(ErrCodeEmptyName, singular, "resource name must not be empty")
	}
	if model == nil {
		return nil, newConfigError(ErrCodeMissingModel, singular, "resource has no model")
	}

	plural := normalizeName(opts.PluralName)
	if plural == "" {
		plural = singular + "s"
	}
	if plural == singular {
		return nil, newConfigError(ErrCodeSameNames, singular, "the singular and plural name have to be different")
	}

	res := &Resource{
		SingularName: singular,
		PluralName:   plural,
		Model:        model,
		Sort:         opts.Sort,
		Render: RenderConfig{
			EntityTemplate:     pick(opts.EntityTemplate, r.defaults.EntityTemplate),
			CollectionTemplate: pick(opts.CollectionTemplate, r.defaults.CollectionTemplate),
			EntityDataName:     pick(opts.EntityDataName, r.defaults.EntityDataName),
			CollectionDataName: pick(opts.CollectionDataName, r.defaults.CollectionDataName),
		},
		EnableXHR:  pickBool(opts.EnableXHR, r.defaults.EnableXHR),
		SingleView: pickBool(opts.SingleView, r.defaults.SingleView),
		Title:      titleOf(plural),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range res.Names() {
		if _, taken := r.byName[name]; taken {
			return nil, newConfigError(ErrCodeDuplicateName, name, "name is already registered")
		}
	}
	r.byName[singular] = res
	r.byName[plural] = res
	r.resources = append(r.resources, res)

	return res, nil
}

// Lookup finds a resource by singular or plural name.
func (r *Registry) Lookup(name string) (*Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byName[normalizeName(name)]
	return res, ok
}

// Resources returns all resources in registration order.
func (r *Registry) Resources() []*Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Resource, len(r.resources))
	copy(out, r.resources)
	return out
}

// Defaults returns the registry-wide configuration.
func (r *Registry) Defaults() Defaults {
	return r.defaults
}

// normalizeName trims and NFC-normalizes so that visually identical
// names from URLs and config files compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pickBool(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}
