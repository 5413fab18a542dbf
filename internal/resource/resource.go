package resource

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/docrest/internal/store"
)

// Template placeholders substituted at render time.
const (
	SingularPlaceholder = "{{singularName}}"
	PluralPlaceholder   = "{{pluralName}}"
)

// Built-in defaults, lowest merge priority.
const (
	DefaultEntityTemplate     = "resource_" + SingularPlaceholder
	DefaultCollectionTemplate = "resource_" + PluralPlaceholder
	DefaultEntityDataName     = "doc"
	DefaultCollectionDataName = "docs"
)

// RenderConfig names the views and view-data keys for a resource.
// Template fields keep their placeholders; see Resource.EntityView.
type RenderConfig struct {
	EntityTemplate     string
	CollectionTemplate string
	EntityDataName     string
	CollectionDataName string
}

// Resource is a document collection served over REST.
// Immutable after registration.
type Resource struct {
	SingularName string
	PluralName   string
	Model        store.Model
	Sort         *store.SortSpec
	Render       RenderConfig
	EnableXHR    bool
	SingleView   bool

	// Title is the plural name in title case, handed to views.
	Title string
}

// EntityView returns the entity view name with placeholders substituted.
func (r *Resource) EntityView() string {
	return r.expand(r.Render.EntityTemplate)
}

// CollectionView returns the collection view name with placeholders substituted.
func (r *Resource) CollectionView() string {
	return r.expand(r.Render.CollectionTemplate)
}

func (r *Resource) expand(template string) string {
	return strings.NewReplacer(
		SingularPlaceholder, r.SingularName,
		PluralPlaceholder, r.PluralName,
	).Replace(template)
}

// Names returns both names, singular first.
func (r *Resource) Names() []string {
	return []string{r.SingularName, r.PluralName}
}

func titleOf(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
