package driver

import (
	"context"
	"sync"

	"github.com/nealshail/datatables-query/query"
	"github.com/nealshail/datatables-query/store"
)

// Resolver expands one named relation in-place on a fetched page.
type Resolver func(ctx context.Context, relation string, docs []store.Document) error

// Memory is an in-process Datasource over a document slice. It exists for
// tests, examples, and small fixed datasets; filtering, ordering, projection
// and paging all happen in memory.
type Memory struct {
	mu      sync.RWMutex
	docs    []store.Document
	resolve Resolver
}

// MemoryOption configures a Memory datasource.
type MemoryOption func(*Memory)

// WithResolver installs the relation resolver used for populate hints.
// Without one, populate is ignored.
func WithResolver(r Resolver) MemoryOption {
	return func(m *Memory) { m.resolve = r }
}

// NewMemory builds a datasource over docs. The slice is not copied; callers
// hand over ownership.
func NewMemory(docs []store.Document, opts ...MemoryOption) *Memory {
	m := &Memory{docs: docs}
	for _, o := range opts {
		o(m)
	}
	return m
}

func cloneDocument(doc store.Document) store.Document {
	out := make(store.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// Insert appends a document.
func (m *Memory) Insert(docs ...store.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
}

// Count implements store.Datasource.
func (m *Memory) Count(ctx context.Context, filter query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	match, err := compilePredicate(filter)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, doc := range m.docs {
		if match(doc) {
			n++
		}
	}
	return n, nil
}

// Find implements store.Datasource.
func (m *Memory) Find(ctx context.Context, filter query.Filter, opts store.FindOptions) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	match, err := compilePredicate(filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	matched := make([]store.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if match(doc) {
			matched = append(matched, doc)
		}
	}
	m.mu.RUnlock()

	sortDocuments(matched, opts.Sort)
	page := pageDocuments(matched, opts.Skip, opts.Limit)

	out := make([]store.Document, len(page))
	for i, doc := range page {
		out[i] = projectDocument(doc, opts.Projection)
	}

	if m.resolve != nil && len(opts.Populate) > 0 {
		// resolvers mutate rows in place; never hand them the stored documents
		if len(opts.Projection) == 0 {
			for i, doc := range out {
				out[i] = cloneDocument(doc)
			}
		}
		for _, rel := range opts.Populate {
			if err := m.resolve(ctx, rel, out); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
