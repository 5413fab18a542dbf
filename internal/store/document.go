package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Document is a single record in a collection.
//
// Fields holds the user data. ID is assigned by the backend on first save
// and never changes afterwards. Seq is the insertion sequence number used
// as the natural order when no sort is requested.
type Document struct {
	ID     string         `json:"_id"`
	Fields map[string]any `json:"fields"`
	Seq    int64          `json:"-"`
}

// NewDocument creates an unsaved document holding a copy of values.
func NewDocument(values map[string]any) *Document {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}
	return &Document{Fields: fields}
}

// Get returns a field value.
func (d *Document) Get(name string) (any, bool) {
	if d == nil || d.Fields == nil {
		return nil, false
	}
	v, ok := d.Fields[name]
	return v, ok
}

// Set assigns a field value, creating the field map if needed.
func (d *Document) Set(name string, value any) {
	if d.Fields == nil {
		d.Fields = make(map[string]any)
	}
	d.Fields[name] = value
}

// Apply copies every entry of values onto the document.
func (d *Document) Apply(values map[string]any) {
	for k, v := range values {
		d.Set(k, v)
	}
}

// Saved reports whether the document has been persisted at least once.
func (d *Document) Saved() bool {
	return d != nil && d.ID != ""
}

// Clone returns a deep-enough copy for backends that must not share
// field maps with callers.
func (d *Document) Clone() *Document {
	c := NewDocument(d.Fields)
	c.ID = d.ID
	c.Seq = d.Seq
	return c
}

// MarshalView flattens the document into a single map with the ID under
// "_id". This is the shape sent to JSON clients and view templates.
func (d *Document) MarshalView() map[string]any {
	out := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		out[k] = v
	}
	out["_id"] = d.ID
	return out
}

// SortSpec orders a collection query by a single field.
type SortSpec struct {
	Field      string `json:"field" yaml:"field"`
	Descending bool   `json:"descending" yaml:"descending"`
}

// ParseSort parses "field" (ascending) or "-field" (descending).
// An empty string yields nil, meaning natural insertion order.
func ParseSort(s string) (*SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	spec := &SortSpec{Field: s}
	switch s[0] {
	case '-':
		spec.Descending = true
		spec.Field = s[1:]
	case '+':
		spec.Field = s[1:]
	}
	if spec.Field == "" {
		return nil, fmt.Errorf("invalid sort %q: missing field name", s)
	}
	return spec, nil
}

// String renders the spec in the form accepted by ParseSort.
func (s *SortSpec) String() string {
	if s == nil {
		return ""
	}
	if s.Descending {
		return "-" + s.Field
	}
	return s.Field
}

// Model is the store collaborator for one collection.
type Model interface {
	// Find starts a query over every document in the collection.
	Find() Query

	// FindOne loads a single document by ID.
	// Returns ErrNotFound (wrapped in a StoreError) when no document matches.
	FindOne(ctx context.Context, id string) (*Document, error)

	// New builds an unsaved document from submitted values.
	New(values map[string]any) *Document

	// Save inserts the document when it has no ID, otherwise replaces it.
	Save(ctx context.Context, doc *Document) error

	// Remove deletes the document.
	Remove(ctx context.Context, doc *Document) error
}

// Query is a lazily executed collection read.
type Query interface {
	Sort(spec *SortSpec) Query
	Exec(ctx context.Context) ([]*Document, error)
}

// sortDocuments orders docs in place. Documents missing the field sort
// first in ascending order. Ties fall back to Seq.
func sortDocuments(docs []*Document, spec *SortSpec) {
	if spec == nil {
		sort.SliceStable(docs, func(i, j int) bool { return docs[i].Seq < docs[j].Seq })
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := docs[i].Get(spec.Field)
		b, _ := docs[j].Get(spec.Field)
		c := compareValues(a, b)
		if c == 0 {
			return docs[i].Seq < docs[j].Seq
		}
		if spec.Descending {
			return c > 0
		}
		return c < 0
	})
}

// compareValues orders nil < numbers < strings < everything else.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case nil:
		return 0
	case string:
		return strings.Compare(av, b.(string))
	}
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	if _, ok := v.(string); ok {
		return 2
	}
	return 3
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
