// Package resource implements the registry of REST resources.
//
// A resource pairs a singular and a plural name with a store.Model and
// its rendering options. Either name resolves to the same resource; both
// are unique across the registry and never equal to each other.
//
// Configuration merges in increasing priority: built-in defaults, the
// registry Defaults, then per-resource Options. View templates keep their
// {{singularName}}/{{pluralName}} placeholders and are expanded on every
// access.
package resource
