package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docrest/internal/resource"
	"github.com/roach88/docrest/internal/rest"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// DefaultListen is the address served when none is configured.
const DefaultListen = ":8080"

var (
	// ErrSyntax marks files that are not valid YAML.
	ErrSyntax = errors.New("failed to parse YAML")

	// ErrInvalid marks configs that pass the schema but break a
	// cross-field rule.
	ErrInvalid = errors.New("invalid config")
)

// Config is the docrest configuration file.
type Config struct {
	URLPath            string           `yaml:"url_path"`
	EntityTemplate     string           `yaml:"entity_template"`
	CollectionTemplate string           `yaml:"collection_template"`
	EntityDataName     string           `yaml:"entity_data_name"`
	CollectionDataName string           `yaml:"collection_data_name"`
	EnableXHR          bool             `yaml:"enable_xhr"`
	SingleView         bool             `yaml:"single_view"`
	Views              string           `yaml:"views"`
	Listen             string           `yaml:"listen"`
	HookTimeout        time.Duration    `yaml:"hook_timeout"`
	Store              StoreConfig      `yaml:"store"`
	Resources          []ResourceConfig `yaml:"resources"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// ResourceConfig declares one served collection. Unset fields inherit
// from the top-level settings.
type ResourceConfig struct {
	Name               string `yaml:"name"`
	Plural             string `yaml:"plural"`
	Sort               string `yaml:"sort"`
	EntityTemplate     string `yaml:"entity_template"`
	CollectionTemplate string `yaml:"collection_template"`
	EntityDataName     string `yaml:"entity_data_name"`
	CollectionDataName string `yaml:"collection_data_name"`
	EnableXHR          *bool  `yaml:"enable_xhr"`
	SingleView         *bool  `yaml:"single_view"`
}

// Default returns the configuration used for unset fields.
func Default() *Config {
	d := resource.BuiltinDefaults()
	return &Config{
		URLPath:            rest.DefaultURLPath,
		EntityTemplate:     d.EntityTemplate,
		CollectionTemplate: d.CollectionTemplate,
		EntityDataName:     d.EntityDataName,
		CollectionDataName: d.CollectionDataName,
		EnableXHR:          d.EnableXHR,
		SingleView:         d.SingleView,
		Listen:             DefaultListen,
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "docrest.db",
		},
	}
}

// Load reads, validates and decodes a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the schema and decodes it over Default.
func Parse(data []byte) (*Config, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// check enforces the rules the schema cannot express.
func (c *Config) check() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Store.URI == "" || c.Store.Database == "" {
			return fmt.Errorf("store.uri and store.database are required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.HookTimeout < 0 {
		return fmt.Errorf("hook_timeout must not be negative")
	}
	return nil
}

// ResourceDefaults returns the registry-wide defaults.
func (c *Config) ResourceDefaults() resource.Defaults {
	return resource.Defaults{
		EntityTemplate:     c.EntityTemplate,
		CollectionTemplate: c.CollectionTemplate,
		EntityDataName:     c.EntityDataName,
		CollectionDataName: c.CollectionDataName,
		EnableXHR:          c.EnableXHR,
		SingleView:         c.SingleView,
	}
}

// ServiceOptions returns the rest.Service options of this config.
func (c *Config) ServiceOptions() []rest.Option {
	opts := []rest.Option{rest.WithURLPath(c.URLPath)}
	if c.HookTimeout > 0 {
		opts = append(opts, rest.WithHookTimeout(c.HookTimeout))
	}
	return opts
}
