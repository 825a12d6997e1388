package store

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	assert.Regexp(t, regexp.MustCompile(`^\d{13}-[0-9a-f]{7}$`), id)
	assert.NotEqual(t, id, NewID())
}

func TestCompare(t *testing.T) {
	early := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, Compare(nil, nil))
	assert.Equal(t, -1, Compare(nil, "a"))
	assert.Equal(t, 1, Compare("a", nil))
	assert.Equal(t, -1, Compare("2024-05-01", "2024-05-03"))
	assert.Equal(t, 1, Compare(10, 9.5))
	assert.Equal(t, 0, Compare(int64(3), float64(3)))
	assert.Equal(t, -1, Compare(early, early.Add(time.Hour)))
}

func TestMatches(t *testing.T) {
	doc := Document{"createdBy": "u1", "status": "pending"}

	assert.True(t, Matches(doc, nil))
	assert.True(t, Matches(doc, []Predicate{{Field: "createdBy", Value: "u1"}}))
	assert.False(t, Matches(doc, []Predicate{{Field: "createdBy", Value: "u1"}, {Field: "status", Value: "accepted"}}))
	assert.False(t, Matches(doc, []Predicate{{Field: "missing", Value: "x"}}))
}

func TestSort(t *testing.T) {
	docs := []Document{
		{"id": "a", "date": "2024-05-01"},
		{"id": "b", "date": "2024-05-03"},
		{"id": "c"},
		{"id": "d", "date": "2024-05-03"},
	}
	Sort(docs, []Order{{Field: "date", Desc: true}, {Field: "id"}})

	ids := []string{}
	for _, d := range docs {
		ids = append(ids, d.ID())
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestMergeAndClone(t *testing.T) {
	base := Document{"id": "x", "friends": []any{"u1"}, "name": "old"}
	merged := Merge(base, Document{"name": "new"})

	assert.Equal(t, "new", merged["name"])
	assert.Equal(t, "old", base["name"])

	merged["friends"].([]any)[0] = "changed"
	assert.Equal(t, "u1", base["friends"].([]any)[0])
}

func TestStripReserved(t *testing.T) {
	doc := Document{FieldID: "x", FieldCreatedAt: "t", FieldUpdatedAt: "t", "name": "n"}
	assert.Equal(t, Document{"name": "n"}, StripReserved(doc))
	assert.Len(t, doc, 4)
	assert.Equal(t, Document{}, StripReserved(nil))
}

func TestEncodeDecode(t *testing.T) {
	type record struct {
		ID      string   `json:"id"`
		Friends []string `json:"friends"`
	}
	doc, err := Encode(record{ID: "u1", Friends: []string{"u2"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.ID())
	assert.Equal(t, []any{"u2"}, doc["friends"])

	var out record
	require.NoError(t, Decode(doc, &out))
	assert.Equal(t, []string{"u2"}, out.Friends)
}
