// driver/mongo.go
//
// Datasource adapter over a MongoDB collection. Filters, projections and
// orderings lower directly into their bson forms; populate hints resolve
// against relations registered at construction and run as $lookup stages.
//
// Usage:
//
//	coll := client.Database("app").Collection("users")
//	src := driver.NewMongo(coll,
//	    driver.WithRelation(driver.Relation{
//	        Name: "company", From: "companies",
//	        LocalField: "company", ForeignField: "_id", Single: true,
//	    }),
//	)
//	resp, err := datatables.New(src).Run(ctx, req)
package driver

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nealshail/datatables-query/query"
	"github.com/nealshail/datatables-query/store"
)

// Relation describes one expandable reference for populate hints.
type Relation struct {
	// Name is the relation name carried in the populate hint.
	Name string
	// From is the foreign collection.
	From string
	// LocalField and ForeignField are the join keys.
	LocalField   string
	ForeignField string
	// Single unwinds the joined array into a single embedded document,
	// for to-one references.
	Single bool
}

// Mongo implements store.Datasource over a *mongo.Collection.
type Mongo struct {
	coll      *mongo.Collection
	relations map[string]Relation
}

// MongoOption configures a Mongo datasource.
type MongoOption func(*Mongo)

// WithRelation registers a relation for populate hints.
func WithRelation(rel Relation) MongoOption {
	return func(m *Mongo) { m.relations[rel.Name] = rel }
}

// NewMongo wraps an existing collection handle.
func NewMongo(coll *mongo.Collection, opts ...MongoOption) *Mongo {
	m := &Mongo{coll: coll, relations: make(map[string]Relation)}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Count implements store.Datasource.
func (m *Mongo) Count(ctx context.Context, filter query.Filter) (int64, error) {
	ctx, span := otel.Tracer("datatables.driver").Start(ctx, "mongo.count")
	defer span.End()
	span.SetAttributes(attribute.String("mongo.collection", m.coll.Name()))

	start := time.Now()
	n, err := m.coll.CountDocuments(ctx, toBSONFilter(filter))
	span.SetAttributes(attribute.Float64("mongo.duration_ms", float64(time.Since(start).Milliseconds())))
	if err != nil {
		span.RecordError(err)
	}
	return n, err
}

// Find implements store.Datasource. Without populate hints it issues a plain
// find; with them it runs an aggregation pipeline carrying the equivalent
// stages plus one $lookup per named relation.
func (m *Mongo) Find(ctx context.Context, filter query.Filter, opts store.FindOptions) ([]store.Document, error) {
	ctx, span := otel.Tracer("datatables.driver").Start(ctx, "mongo.find")
	defer span.End()
	span.SetAttributes(
		attribute.String("mongo.collection", m.coll.Name()),
		attribute.Int("mongo.populate", len(opts.Populate)),
	)

	var (
		cur *mongo.Cursor
		err error
	)
	if len(opts.Populate) == 0 {
		cur, err = m.coll.Find(ctx, toBSONFilter(filter), findOptions(opts))
	} else {
		var pipeline mongo.Pipeline
		pipeline, err = m.pipeline(filter, opts)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		cur, err = m.coll.Aggregate(ctx, pipeline)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var docs []store.Document
	if err := cur.All(ctx, &docs); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return docs, nil
}

func findOptions(opts store.FindOptions) *options.FindOptions {
	fo := options.Find().SetSkip(opts.Skip)
	if opts.Limit >= 0 {
		fo.SetLimit(opts.Limit)
	}
	if len(opts.Projection) > 0 {
		fo.SetProjection(toBSONProjection(opts.Projection))
	}
	if len(opts.Sort) > 0 {
		fo.SetSort(toBSONSort(opts.Sort))
	}
	return fo
}

// pipeline builds $match/$sort/$skip/$limit/$lookup/$project stages mirroring
// findOptions, for fetches that expand relations.
func (m *Mongo) pipeline(filter query.Filter, opts store.FindOptions) (mongo.Pipeline, error) {
	p := mongo.Pipeline{
		bson.D{{Key: "$match", Value: toBSONFilter(filter)}},
	}
	if len(opts.Sort) > 0 {
		p = append(p, bson.D{{Key: "$sort", Value: toBSONSort(opts.Sort)}})
	}
	if opts.Skip > 0 {
		p = append(p, bson.D{{Key: "$skip", Value: opts.Skip}})
	}
	if opts.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: opts.Limit}})
	}
	for _, name := range opts.Populate {
		rel, ok := m.relations[name]
		if !ok {
			return nil, fmt.Errorf("driver: unknown relation %q", name)
		}
		p = append(p, bson.D{{Key: "$lookup", Value: bson.M{
			"from":         rel.From,
			"localField":   rel.LocalField,
			"foreignField": rel.ForeignField,
			"as":           rel.Name,
		}}})
		if rel.Single {
			p = append(p, bson.D{{Key: "$unwind", Value: bson.M{
				"path":                       "$" + rel.Name,
				"preserveNullAndEmptyArrays": true,
			}}})
		}
	}
	if len(opts.Projection) > 0 {
		proj := toBSONProjection(opts.Projection)
		// keep expanded relations visible alongside the projected columns
		for _, name := range opts.Populate {
			proj = append(proj, bson.E{Key: name, Value: 1})
		}
		p = append(p, bson.D{{Key: "$project", Value: proj}})
	}
	return p, nil
}

// -------------------------------------------------------------------
// query.* → bson lowering
// -------------------------------------------------------------------

func toBSONFilter(f query.Filter) bson.M {
	out := make(bson.M, len(f))
	for k, v := range f {
		out[k] = toBSONValue(v)
	}
	return out
}

func toBSONValue(v any) any {
	switch t := v.(type) {
	case query.Regex:
		return primitive.Regex{Pattern: t.Pattern, Options: t.Options}
	case query.AllTokens:
		// Mongo's PCRE engine evaluates the conjunctive lookaheads.
		return primitive.Regex{Pattern: t.Pattern(), Options: t.Options}
	case query.Filter:
		return toBSONFilter(t)
	case map[string]any:
		return toBSONFilter(query.Filter(t))
	case []query.Filter:
		arr := make(bson.A, len(t))
		for i, sub := range t {
			arr[i] = toBSONFilter(sub)
		}
		return arr
	case []any:
		arr := make(bson.A, len(t))
		for i, sub := range t {
			arr[i] = toBSONValue(sub)
		}
		return arr
	default:
		return v
	}
}

func toBSONSort(s query.Sort) bson.D {
	d := make(bson.D, 0, len(s))
	for field, dir := range s {
		d = append(d, bson.E{Key: field, Value: int(dir)})
	}
	return d
}

func toBSONProjection(p query.Projection) bson.D {
	d := make(bson.D, 0, len(p))
	for field, include := range p {
		if include {
			d = append(d, bson.E{Key: field, Value: 1})
		}
	}
	return d
}
