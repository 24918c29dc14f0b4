// driver/redis.go
//
// Thin shim over github.com/redis/go-redis/v9 that serves a collection of
// JSON documents held in a single hash (field = document id, value = JSON).
//
// RediSearch's query dialect cannot express the field-level regex matchers
// and $or/$and structure of query.Filter server-side, so documents are
// loaded and filtered in-process. That keeps this adapter for small, cached
// collections; large datasets belong on the Mongo adapter.
//
// Usage:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	src := driver.NewRedis(rdb, "users")
//	resp, err := datatables.New(src).Run(ctx, req)
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nealshail/datatables-query/query"
	"github.com/nealshail/datatables-query/store"
)

// Redis implements store.Datasource over a hash of JSON documents.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis wraps an existing go-redis client. key names the hash holding the
// collection.
func NewRedis(c *redis.Client, key string) *Redis {
	return &Redis{client: c, key: key}
}

// Put stores one document under id.
func (r *Redis) Put(ctx context.Context, id string, doc store.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("driver: encode document %s: %w", id, err)
	}
	return r.client.HSet(ctx, r.key, id, raw).Err()
}

// Close conveniently closes the underlying *redis.Client.
func (r *Redis) Close() error { return r.client.Close() }

// Count implements store.Datasource.
func (r *Redis) Count(ctx context.Context, filter query.Filter) (int64, error) {
	match, err := compilePredicate(filter)
	if err != nil {
		return 0, err
	}
	docs, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, doc := range docs {
		if match(doc) {
			n++
		}
	}
	return n, nil
}

// Find implements store.Datasource. Populate hints are ignored; the hash
// holds no relations.
func (r *Redis) Find(ctx context.Context, filter query.Filter, opts store.FindOptions) ([]store.Document, error) {
	match, err := compilePredicate(filter)
	if err != nil {
		return nil, err
	}
	docs, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	matched := docs[:0]
	for _, doc := range docs {
		if match(doc) {
			matched = append(matched, doc)
		}
	}

	sortDocuments(matched, opts.Sort)
	page := pageDocuments(matched, opts.Skip, opts.Limit)

	out := make([]store.Document, len(page))
	for i, doc := range page {
		out[i] = projectDocument(doc, opts.Projection)
	}
	return out, nil
}

// load fetches and decodes every document in the hash.
func (r *Redis) load(ctx context.Context) ([]store.Document, error) {
	// span for tracing & slow-fetch logging
	ctx, span := otel.Tracer("datatables.driver").Start(ctx, "redis.load")
	defer span.End()

	start := time.Now()
	vals, err := r.client.HVals(ctx, r.key).Result()
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("redis.key", r.key),
		attribute.Int("redis.documents", len(vals)),
		attribute.Float64("redis.duration_ms", float64(elapsed.Milliseconds())),
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	docs := make([]store.Document, 0, len(vals))
	for _, raw := range vals {
		var doc store.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("driver: decode document in %s: %w", r.key, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
