package boltstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentplanner/server/store"
	"github.com/parentplanner/server/store/storetest"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(tempDBPath(t))
		require.NoError(t, err)
		return s
	})
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(filepath.Join(os.DevNull, "impossible", "path.db"))
	assert.Error(t, err)
}

func TestReopen_KeepsDocuments(t *testing.T) {
	path := tempDBPath(t)

	s, err := New(path)
	require.NoError(t, err)
	_, err = s.Create(context.Background(), store.Activities, store.Document{
		"id":        "a1",
		"createdBy": "u1",
		"date":      "2024-05-01",
	})
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	s, err = New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })

	doc, err := s.Get(context.Background(), store.Activities, "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc["createdBy"])
}

func TestGet_UnknownCollection(t *testing.T) {
	s, err := New(tempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })

	_, err = s.Get(context.Background(), "nothing-here", "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
