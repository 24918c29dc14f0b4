// Package store declares the datasource contract the orchestrator runs
// against. Adapters for concrete stores live in the driver package.
package store

import (
	"context"

	"github.com/nealshail/datatables-query/query"
)

// Document is one fetched record.
type Document = map[string]any

// FindOptions shapes a page fetch.
type FindOptions struct {
	Projection query.Projection
	// Sort is nil for store-default order.
	Sort query.Sort
	Skip int64
	// Limit caps the page size. A negative limit fetches to the end.
	Limit int64
	// Populate names relations to expand. Datasources without relation
	// support ignore it.
	Populate []string
}

// Datasource is the handle to a bound collection of documents. Both
// operations are fallible and honor ctx cancellation as far as the
// underlying client does; no retries happen at this layer.
type Datasource interface {
	// Count returns the number of documents matching filter.
	Count(ctx context.Context, filter query.Filter) (int64, error)
	// Find returns the documents matching filter, shaped by opts.
	Find(ctx context.Context, filter query.Filter, opts FindOptions) ([]Document, error)
}
