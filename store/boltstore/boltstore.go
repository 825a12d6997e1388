// Package boltstore persists documents as JSON values in bbolt buckets, one
// bucket per collection.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/parentplanner/server/store"
)

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) the database file at path and makes sure a bucket
// exists for every known collection.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{store.Users, store.Activities, store.Invitations, store.Credentials} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("path", path).Info("bbolt store opened")
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Create(_ context.Context, collection string, doc store.Document) (store.Document, error) {
	id := doc.ID()
	if id == "" {
		id = store.NewID()
	}
	rec := store.StripReserved(doc)
	now := s.now()
	rec[store.FieldID] = id
	rec[store.FieldCreatedAt] = now
	rec[store.FieldUpdatedAt] = now

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s/%s: %w", collection, id, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("creating %s bucket: %w", collection, err)
		}
		if err := b.Put([]byte(id), data); err != nil {
			return fmt.Errorf("writing %s/%s: %w", collection, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return unmarshal(collection, id, data)
}

func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	var doc store.Document

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return store.ErrNotFound
		}
		data := b.Get([]byte(id))
		if data == nil {
			return store.ErrNotFound
		}
		var err error
		doc, err = unmarshal(collection, id, data)
		return err
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields store.Document) (store.Document, error) {
	var doc store.Document

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return store.ErrNotFound
		}
		data := b.Get([]byte(id))
		if data == nil {
			return store.ErrNotFound
		}

		existing, err := unmarshal(collection, id, data)
		if err != nil {
			return err
		}
		merged := store.Merge(existing, store.StripReserved(fields))
		merged[store.FieldID] = id
		merged[store.FieldUpdatedAt] = s.now()

		updated, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshaling %s/%s: %w", collection, id, err)
		}
		if err := b.Put([]byte(id), updated); err != nil {
			return fmt.Errorf("writing %s/%s: %w", collection, id, err)
		}

		doc, err = unmarshal(collection, id, updated)
		return err
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(id)); err != nil {
			return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
		}
		return nil
	})
}

// Query scans the whole bucket; bbolt has no secondary indexes.
func (s *Store) Query(_ context.Context, collection string, q store.Query) ([]store.Document, error) {
	var out []store.Document

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			doc, err := unmarshal(collection, string(k), v)
			if err != nil {
				return err
			}
			if store.Matches(doc, q.Where) {
				out = append(out, doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	store.Sort(out, q.OrderBy)
	return out, nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func unmarshal(collection, id string, data []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling %s/%s: %w", collection, id, err)
	}
	return doc, nil
}
