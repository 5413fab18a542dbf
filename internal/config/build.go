package config

import (
	"context"
	"fmt"

	"github.com/roach88/docrest/internal/resource"
	"github.com/roach88/docrest/internal/rest"
	"github.com/roach88/docrest/internal/store"
	"github.com/roach88/docrest/internal/store/mongostore"
)

// Backend is an open document store.
type Backend interface {
	Collection(name string) store.Model
	Close() error
}

type memoryBackend struct {
	*store.Memory
}

func (memoryBackend) Close() error { return nil }

// MemoryBackend returns an empty in-process backend.
func MemoryBackend(opts ...store.MemoryOption) Backend {
	return memoryBackend{store.NewMemory(opts...)}
}

// OpenStore opens the configured backend.
func (c *Config) OpenStore(ctx context.Context) (Backend, error) {
	switch c.Store.Driver {
	case DriverSQLite:
		st, err := store.Open(c.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	case DriverMongo:
		st, err := mongostore.Connect(ctx, c.Store.URI, c.Store.Database)
		if err != nil {
			return nil, fmt.Errorf("connect mongo store: %w", err)
		}
		return st, nil
	case DriverMemory:
		return MemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
}

// NewService builds the service and registers every configured resource.
// Each resource is stored in the collection named after its plural.
func (c *Config) NewService(backend Backend, opts ...rest.Option) (*rest.Service, error) {
	svc := rest.NewService(resource.NewRegistry(c.ResourceDefaults()), append(c.ServiceOptions(), opts...)...)
	for i, rc := range c.Resources {
		ropts, err := rc.options()
		if err != nil {
			return nil, fmt.Errorf("resources[%d] %s: %w", i, rc.Name, err)
		}
		plural := ropts.PluralName
		if plural == "" {
			plural = rc.Name + "s"
		}
		if _, err := svc.AddResource(rc.Name, backend.Collection(plural), ropts); err != nil {
			return nil, fmt.Errorf("resources[%d]: %w", i, err)
		}
	}
	return svc, nil
}

func (rc ResourceConfig) options() (*resource.Options, error) {
	opts := &resource.Options{
		PluralName:         rc.Plural,
		EntityTemplate:     rc.EntityTemplate,
		CollectionTemplate: rc.CollectionTemplate,
		EntityDataName:     rc.EntityDataName,
		CollectionDataName: rc.CollectionDataName,
		EnableXHR:          rc.EnableXHR,
		SingleView:         rc.SingleView,
	}
	if rc.Sort != "" {
		spec, err := store.ParseSort(rc.Sort)
		if err != nil {
			return nil, err
		}
		opts.Sort = spec
	}
	return opts, nil
}
