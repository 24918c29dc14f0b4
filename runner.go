// Package datatables turns DataTables server-side request descriptors into
// document-store queries and executes them against a bound datasource.
//
//	src := driver.NewMongo(client.Database("app").Collection("users"))
//	dt := datatables.New(src)
//
//	req, err := descriptor.FromValues(r.URL.Query())
//	resp, err := dt.Run(r.Context(), req)
//
// Run issues two counts (all documents matching the base filter; documents
// matching the compiled filter) and one page fetch, and assembles the
// response envelope. Failures are always a *Error discriminated by Kind.
package datatables

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nealshail/datatables-query/descriptor"
	"github.com/nealshail/datatables-query/internal"
	"github.com/nealshail/datatables-query/query"
	"github.com/nealshail/datatables-query/store"
)

// Runner executes request descriptors against one datasource. It holds no
// per-request state and is safe for concurrent use.
type Runner struct {
	src        store.Datasource
	log        *zap.Logger
	concurrent bool
	maxLength  int64
}

// New binds a Runner to a datasource.
func New(src store.Datasource, opts ...Option) *Runner {
	r := &Runner{src: src, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes one request. The descriptor is not mutated.
//
// The store operations are causally sequenced (counts, then fetch) unless
// WithConcurrentCounts was set, in which case the two counts overlap. No
// snapshot isolation is assumed: under concurrent writes the filtered count
// may exceed the total, which callers must tolerate. Any store failure
// aborts the whole request; there are no retries and no partial results.
func (r *Runner) Run(ctx context.Context, req *descriptor.Request) (*descriptor.Response, error) {
	ctx, span := otel.Tracer("datatables").Start(ctx, "datatables.run")
	defer span.End()

	if req == nil {
		return nil, invalidQuery(query.ErrNoColumns)
	}

	var bad []string
	for _, p := range []struct {
		name string
		n    descriptor.Number
	}{
		{"draw", req.Draw},
		{"start", req.Start},
		{"length", req.Length},
	} {
		if !p.n.Valid {
			bad = append(bad, p.name)
		}
	}
	if len(bad) > 0 {
		return nil, invalidParams(bad...)
	}

	filter, err := query.CompileFilter(req)
	if err != nil {
		return nil, invalidQuery(err)
	}
	proj, err := query.CompileProjection(req)
	if err != nil {
		return nil, invalidQuery(err)
	}
	// a nil sort is valid: store-default order
	sort := query.CompileSort(req)
	base := query.Filter(req.Find).Clone()

	length := req.Length.Value
	if r.maxLength > 0 && (length < 0 || length > r.maxLength) {
		length = r.maxLength
	}

	span.SetAttributes(
		attribute.Int64("datatables.draw", req.Draw.Value),
		attribute.Int64("datatables.start", req.Start.Value),
		attribute.Int64("datatables.length", length),
	)

	total, filtered, err := r.count(ctx, base, filter)
	if err != nil {
		return nil, err
	}

	docs, err := r.src.Find(ctx, filter, store.FindOptions{
		Projection: proj,
		Sort:       sort,
		Skip:       internal.Max(req.Start.Value, 0),
		Limit:      length,
		Populate:   req.Populate,
	})
	if err != nil {
		span.RecordError(err)
		return nil, storeError("fetch", err)
	}

	span.SetAttributes(
		attribute.Int64("datatables.records_total", total),
		attribute.Int64("datatables.records_filtered", filtered),
	)
	r.log.Debug("datatables query executed",
		zap.Int64("draw", req.Draw.Value),
		zap.Int64("total", total),
		zap.Int64("filtered", filtered),
		zap.Int("rows", len(docs)),
	)

	return &descriptor.Response{
		Draw:            req.Draw.Value,
		RecordsTotal:    total,
		RecordsFiltered: filtered,
		Data:            docs,
	}, nil
}

// count issues the two independent counts, sequentially by default.
func (r *Runner) count(ctx context.Context, base, filter query.Filter) (total, filtered int64, err error) {
	if !r.concurrent {
		total, err = r.src.Count(ctx, base)
		if err != nil {
			return 0, 0, storeError("total count", err)
		}
		filtered, err = r.src.Count(ctx, filter)
		if err != nil {
			return 0, 0, storeError("filtered count", err)
		}
		return total, filtered, nil
	}

	type result struct {
		n   int64
		err error
	}
	totalCh := make(chan result, 1)
	go func() {
		n, err := r.src.Count(ctx, base)
		totalCh <- result{n, err}
	}()

	filtered, ferr := r.src.Count(ctx, filter)
	t := <-totalCh
	if t.err != nil {
		return 0, 0, storeError("total count", t.err)
	}
	if ferr != nil {
		return 0, 0, storeError("filtered count", ferr)
	}
	return t.n, filtered, nil
}
