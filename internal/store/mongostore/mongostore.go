// Package mongostore backs docrest resources with MongoDB collections.
//
// Documents use string _id values produced by a store.IDGenerator. The
// default UUIDv7 IDs are time-sortable, so natural order is _id ascending.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roach88/docrest/internal/store"
)

// Store is a connected MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	ids    store.IDGenerator
}

// Connect dials uri and selects database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		return nil, errors.New("mongostore: database name is empty")
	}
	opts := options.Client().ApplyURI(uri)
	opts.SetConnectTimeout(10 * time.Second).SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(database),
		ids:    store.UUIDv7Generator{},
	}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Collection returns the Model for the named collection.
func (s *Store) Collection(name string) store.Model {
	return &collection{coll: s.db.Collection(name), name: name, ids: s.ids}
}

type collection struct {
	coll *mongo.Collection
	name string
	ids  store.IDGenerator
}

func (c *collection) Find() store.Query {
	return &query{c: c}
}

func (c *collection) FindOne(ctx context.Context, id string) (*store.Document, error) {
	var raw bson.M
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.Wrap("find_one", c.name, store.ErrNotFound)
	}
	if err != nil {
		return nil, store.Wrap("find_one", c.name, err)
	}
	return fromBSON(raw), nil
}

func (c *collection) New(values map[string]any) *store.Document {
	return store.NewDocument(values)
}

func (c *collection) Save(ctx context.Context, doc *store.Document) error {
	if !doc.Saved() {
		id := c.ids.Generate()
		if _, err := c.coll.InsertOne(ctx, toBSON(id, doc.Fields)); err != nil {
			return store.Wrap("save", c.name, err)
		}
		doc.ID = id
		return nil
	}

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, toBSON(doc.ID, doc.Fields))
	if err != nil {
		return store.Wrap("save", c.name, err)
	}
	if res.MatchedCount == 0 {
		return store.Wrap("save", c.name, store.ErrNotFound)
	}
	return nil
}

func (c *collection) Remove(ctx context.Context, doc *store.Document) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": doc.ID})
	if err != nil {
		return store.Wrap("remove", c.name, err)
	}
	if res.DeletedCount == 0 {
		return store.Wrap("remove", c.name, store.ErrNotFound)
	}
	return nil
}

type query struct {
	c    *collection
	sort *store.SortSpec
}

func (q *query) Sort(spec *store.SortSpec) store.Query {
	q.sort = spec
	return q
}

func (q *query) Exec(ctx context.Context) ([]*store.Document, error) {
	cur, err := q.c.coll.Find(ctx, bson.M{}, options.Find().SetSort(sortDoc(q.sort)))
	if err != nil {
		return nil, store.Wrap("find", q.c.name, err)
	}
	defer cur.Close(ctx)

	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, store.Wrap("find", q.c.name, err)
	}

	docs := make([]*store.Document, 0, len(raws))
	for i, raw := range raws {
		doc := fromBSON(raw)
		doc.Seq = int64(i + 1)
		docs = append(docs, doc)
	}
	return docs, nil
}

// sortDoc builds the Find sort document. _id breaks ties.
func sortDoc(spec *store.SortSpec) bson.D {
	if spec == nil {
		return bson.D{{Key: "_id", Value: 1}}
	}
	dir := 1
	if spec.Descending {
		dir = -1
	}
	return bson.D{{Key: spec.Field, Value: dir}, {Key: "_id", Value: 1}}
}

func toBSON(id string, fields map[string]any) bson.M {
	m := make(bson.M, len(fields)+1)
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		m[k] = v
	}
	m["_id"] = id
	return m
}

func fromBSON(raw bson.M) *store.Document {
	doc := &store.Document{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "_id" {
			doc.ID = fmt.Sprint(normalize(v))
			continue
		}
		doc.Fields[k] = normalize(v)
	}
	return doc
}

// normalize converts driver container types into plain Go maps and slices
// so documents look the same regardless of backend.
func normalize(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	}
	return v
}
