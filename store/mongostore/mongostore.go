// Package mongostore is the MongoDB document store adapter.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parentplanner/server/store"
)

const mongoID = "_id"

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB, verifies the connection and ensures the indexes the
// queries rely on.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	log.WithField("database", database).Info("connected to MongoDB")

	s := &Store{client: client, db: client.Database(database)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. The caller keeps ownership of the
// client.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the secondary indexes used by the equality queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		store.Activities: {{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "date", Value: -1}}}},
		store.Invitations: {{Keys: bson.D{{Key: "code", Value: 1}}}},
		store.Users:       {{Keys: bson.D{{Key: "email", Value: 1}}}},
		store.Credentials: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for collection, models := range indexes {
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating %s indexes: %w", collection, err)
		}
	}
	return nil
}

// Create writes the record, replacing any record with the same id, then stamps
// both timestamps from the server clock.
func (s *Store) Create(ctx context.Context, collection string, doc store.Document) (store.Document, error) {
	id := doc.ID()
	if id == "" {
		id = store.NewID()
	}
	coll := s.db.Collection(collection)
	filter := bson.M{mongoID: id}

	replacement := bson.M(store.StripReserved(doc))
	if _, err := coll.ReplaceOne(ctx, filter, replacement, options.Replace().SetUpsert(true)); err != nil {
		return nil, fmt.Errorf("creating %s/%s: %w", collection, id, err)
	}

	update := bson.M{
		"$currentDate": bson.M{store.FieldCreatedAt: true, store.FieldUpdatedAt: true},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&raw); err != nil {
		return nil, fmt.Errorf("stamping %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{mongoID: id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields store.Document) (store.Document, error) {
	update := bson.M{
		"$currentDate": bson.M{store.FieldUpdatedAt: true},
	}
	if set := store.StripReserved(fields); len(set) > 0 {
		update["$set"] = bson.M(set)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	err := s.db.Collection(collection).FindOneAndUpdate(ctx, bson.M{mongoID: id}, update, opts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{mongoID: id}); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	opts := options.Find()
	if sort := sortDoc(q.OrderBy); len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filterDoc(q.Where), opts)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", collection, err)
	}

	docs := make([]store.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, fromBSON(raw))
	}
	return docs, nil
}

// Close disconnects the client when this store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func fieldName(f string) string {
	if f == store.FieldID {
		return mongoID
	}
	return f
}

func filterDoc(preds []store.Predicate) bson.D {
	filter := bson.D{}
	for _, p := range preds {
		filter = append(filter, bson.E{Key: fieldName(p.Field), Value: p.Value})
	}
	return filter
}

func sortDoc(orders []store.Order) bson.D {
	var sort bson.D
	for _, o := range orders {
		dir := 1
		if o.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: fieldName(o.Field), Value: dir})
	}
	return sort
}

// fromBSON converts a decoded record into a plain Document: _id becomes id,
// BSON arrays and dates become []any and time.Time.
func fromBSON(raw bson.M) store.Document {
	doc := make(store.Document, len(raw))
	for k, v := range raw {
		if k == mongoID {
			doc[store.FieldID] = fmt.Sprint(v)
			continue
		}
		doc[k] = plain(v)
	}
	return doc
}

func plain(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
