// Package storetest holds the contract every store.Store implementation must
// satisfy. Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentplanner/server/store"
)

// Factory returns a fresh, empty store. Run closes it when the subtest ends.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Create", func(t *testing.T) {
		t.Run("assigns an id when absent", func(t *testing.T) {
			s := open(t, newStore)
			doc, err := s.Create(context.Background(), "things", store.Document{"name": "a"})
			require.NoError(t, err)
			assert.NotEmpty(t, doc.ID())
			assert.Equal(t, "a", doc["name"])
		})

		t.Run("keeps a supplied id", func(t *testing.T) {
			s := open(t, newStore)
			doc, err := s.Create(context.Background(), "things", store.Document{"id": "fixed", "name": "a"})
			require.NoError(t, err)
			assert.Equal(t, "fixed", doc.ID())

			got, err := s.Get(context.Background(), "things", "fixed")
			require.NoError(t, err)
			assert.Equal(t, "a", got["name"])
		})

		t.Run("replaces a record with the same id", func(t *testing.T) {
			s := open(t, newStore)
			ctx := context.Background()
			_, err := s.Create(ctx, "things", store.Document{"id": "fixed", "name": "a", "extra": "old"})
			require.NoError(t, err)

			doc, err := s.Create(ctx, "things", store.Document{"id": "fixed", "name": "b"})
			require.NoError(t, err)
			assert.Equal(t, "b", doc["name"])
			assert.NotContains(t, doc, "extra")

			got, err := s.Get(ctx, "things", "fixed")
			require.NoError(t, err)
			assert.Equal(t, "b", got["name"])
			assert.NotContains(t, got, "extra")
		})

		t.Run("stamps timestamps", func(t *testing.T) {
			s := open(t, newStore)
			doc, err := s.Create(context.Background(), "things", store.Document{"name": "a", "createdAt": "client"})
			require.NoError(t, err)
			assert.NotNil(t, doc[store.FieldCreatedAt])
			assert.NotNil(t, doc[store.FieldUpdatedAt])
			assert.NotEqual(t, "client", doc[store.FieldCreatedAt])
		})

		t.Run("ids are distinct", func(t *testing.T) {
			s := open(t, newStore)
			seen := map[string]bool{}
			for i := 0; i < 20; i++ {
				doc, err := s.Create(context.Background(), "things", store.Document{"n": i})
				require.NoError(t, err)
				require.False(t, seen[doc.ID()], "duplicate id %s", doc.ID())
				seen[doc.ID()] = true
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("missing record is ErrNotFound", func(t *testing.T) {
			s := open(t, newStore)
			_, err := s.Get(context.Background(), "things", "nope")
			assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
		})

		t.Run("round trips lists", func(t *testing.T) {
			s := open(t, newStore)
			_, err := s.Create(context.Background(), "things", store.Document{
				"id":   "t1",
				"tags": []string{"x", "y"},
			})
			require.NoError(t, err)

			got, err := s.Get(context.Background(), "things", "t1")
			require.NoError(t, err)
			assert.Equal(t, []any{"x", "y"}, got["tags"])
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("merges fields", func(t *testing.T) {
			s := open(t, newStore)
			_, err := s.Create(context.Background(), "things", store.Document{"id": "t1", "a": "1", "b": "2"})
			require.NoError(t, err)

			doc, err := s.Update(context.Background(), "things", "t1", store.Document{"b": "3", "c": "4"})
			require.NoError(t, err)
			assert.Equal(t, "1", doc["a"])
			assert.Equal(t, "3", doc["b"])
			assert.Equal(t, "4", doc["c"])
			assert.Equal(t, "t1", doc.ID())

			got, err := s.Get(context.Background(), "things", "t1")
			require.NoError(t, err)
			assert.Equal(t, "3", got["b"])
		})

		t.Run("cannot change the id", func(t *testing.T) {
			s := open(t, newStore)
			_, err := s.Create(context.Background(), "things", store.Document{"id": "t1"})
			require.NoError(t, err)

			doc, err := s.Update(context.Background(), "things", "t1", store.Document{"id": "other"})
			require.NoError(t, err)
			assert.Equal(t, "t1", doc.ID())
			_, err = s.Get(context.Background(), "things", "other")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})

		t.Run("missing record is ErrNotFound", func(t *testing.T) {
			s := open(t, newStore)
			_, err := s.Update(context.Background(), "things", "nope", store.Document{"a": "1"})
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("removes the record", func(t *testing.T) {
			s := open(t, newStore)
			_, err := s.Create(context.Background(), "things", store.Document{"id": "t1"})
			require.NoError(t, err)

			require.NoError(t, s.Delete(context.Background(), "things", "t1"))
			_, err = s.Get(context.Background(), "things", "t1")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})

		t.Run("missing record is not an error", func(t *testing.T) {
			s := open(t, newStore)
			assert.NoError(t, s.Delete(context.Background(), "things", "nope"))
		})
	})

	t.Run("Query", func(t *testing.T) {
		t.Run("filters by equality and orders descending", func(t *testing.T) {
			s := open(t, newStore)
			for _, d := range []store.Document{
				{"id": "a1", "owner": "u1", "date": "2024-05-01"},
				{"id": "a2", "owner": "u2", "date": "2024-05-03"},
				{"id": "a3", "owner": "u1", "date": "2024-06-10"},
				{"id": "a4", "owner": "u1", "date": "2024-01-15"},
			} {
				_, err := s.Create(context.Background(), "things", d)
				require.NoError(t, err)
			}

			docs, err := s.Query(context.Background(), "things", store.Where("owner", "u1").OrderByDesc("date"))
			require.NoError(t, err)
			assert.Equal(t, []string{"a3", "a1", "a4"}, ids(docs))
		})

		t.Run("orders ascending", func(t *testing.T) {
			s := open(t, newStore)
			for _, d := range []store.Document{
				{"id": "b", "date": "2024-05-03"},
				{"id": "a", "date": "2024-05-01"},
			} {
				_, err := s.Create(context.Background(), "things", d)
				require.NoError(t, err)
			}

			docs, err := s.Query(context.Background(), "things", store.Query{}.OrderByAsc("date"))
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids(docs))
		})

		t.Run("no match is empty", func(t *testing.T) {
			s := open(t, newStore)
			docs, err := s.Query(context.Background(), "things", store.Where("owner", "nobody"))
			require.NoError(t, err)
			assert.Empty(t, docs)
		})

		t.Run("multiple predicates are ANDed", func(t *testing.T) {
			s := open(t, newStore)
			for _, d := range []store.Document{
				{"id": "1", "code": "ABC", "status": "pending"},
				{"id": "2", "code": "ABC", "status": "accepted"},
			} {
				_, err := s.Create(context.Background(), "things", d)
				require.NoError(t, err)
			}

			q := store.Query{Where: []store.Predicate{{Field: "code", Value: "ABC"}, {Field: "status", Value: "pending"}}}
			docs, err := s.Query(context.Background(), "things", q)
			require.NoError(t, err)
			assert.Equal(t, []string{"1"}, ids(docs))
		})
	})
}

func open(t *testing.T, newStore Factory) store.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func ids(docs []store.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID())
	}
	return out
}
