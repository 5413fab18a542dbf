package store

import (
	"context"
	"sync"
)

// Memory is an in-process backend. Collections live for the lifetime of
// the Memory value. Documents are cloned on the way in and out so callers
// never share field maps with the backend.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	clock       *Clock
	ids         IDGenerator
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithMemoryIDs overrides the document ID generator.
func WithMemoryIDs(gen IDGenerator) MemoryOption {
	return func(m *Memory) {
		m.ids = gen
	}
}

// NewMemory creates an empty in-memory backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		collections: make(map[string]map[string]*Document),
		clock:       NewClockAt(0),
		ids:         UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Collection returns the Model for the named collection.
func (m *Memory) Collection(name string) Model {
	return &memoryCollection{mem: m, name: name}
}

type memoryCollection struct {
	mem  *Memory
	name string
}

func (c *memoryCollection) Find() Query {
	return &memoryQuery{coll: c}
}

func (c *memoryCollection) FindOne(ctx context.Context, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("find_one", c.name, err)
	}
	c.mem.mu.RLock()
	defer c.mem.mu.RUnlock()

	doc, ok := c.mem.collections[c.name][id]
	if !ok {
		return nil, wrap("find_one", c.name, ErrNotFound)
	}
	return doc.Clone(), nil
}

func (c *memoryCollection) New(values map[string]any) *Document {
	return NewDocument(values)
}

func (c *memoryCollection) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return wrap("save", c.name, err)
	}
	c.mem.mu.Lock()
	defer c.mem.mu.Unlock()

	docs := c.mem.collections[c.name]
	if docs == nil {
		docs = make(map[string]*Document)
		c.mem.collections[c.name] = docs
	}
	if !doc.Saved() {
		doc.ID = c.mem.ids.Generate()
		doc.Seq = c.mem.clock.Next()
	} else if existing, ok := docs[doc.ID]; ok {
		doc.Seq = existing.Seq
	} else {
		return wrap("save", c.name, ErrNotFound)
	}
	docs[doc.ID] = doc.Clone()
	return nil
}

func (c *memoryCollection) Remove(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return wrap("remove", c.name, err)
	}
	c.mem.mu.Lock()
	defer c.mem.mu.Unlock()

	docs := c.mem.collections[c.name]
	if _, ok := docs[doc.ID]; !ok {
		return wrap("remove", c.name, ErrNotFound)
	}
	delete(docs, doc.ID)
	return nil
}

type memoryQuery struct {
	coll *memoryCollection
	sort *SortSpec
}

func (q *memoryQuery) Sort(spec *SortSpec) Query {
	q.sort = spec
	return q
}

func (q *memoryQuery) Exec(ctx context.Context) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("find", q.coll.name, err)
	}
	q.coll.mem.mu.RLock()
	docs := make([]*Document, 0, len(q.coll.mem.collections[q.coll.name]))
	for _, d := range q.coll.mem.collections[q.coll.name] {
		docs = append(docs, d.Clone())
	}
	q.coll.mem.mu.RUnlock()

	sortDocuments(docs, q.sort)
	return docs, nil
}
