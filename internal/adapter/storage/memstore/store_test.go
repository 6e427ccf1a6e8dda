package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vexachat/internal/domain/storage"
	apperrors "vexachat/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetDocumentMergePreservesDisjointFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"displayName": "Guest_42"}, true))
	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"online": true}, true))

	rec, exists, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "Guest_42", rec.String("displayName"))
	assert.True(t, rec.Bool("online"))
}

func TestSetDocumentMergeIncomingWinsOnConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"displayName": "old", "online": false}, true))
	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"displayName": "new"}, true))

	rec, _, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.String("displayName"))
	assert.False(t, rec.Bool("online"))
}

func TestSetDocumentWithoutMergeReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"displayName": "Guest_1", "online": true}, false))
	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"displayName": "Guest_2"}, false))

	rec, _, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Guest_2", rec.String("displayName"))
	_, hasOnline := rec["online"]
	assert.False(t, hasOnline)
}

func TestSetDocumentRejectsEmptyID(t *testing.T) {
	s := newTestStore(t)

	err := s.SetDocument(context.Background(), "users", "", storage.Record{"a": 1}, false)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestGetDocumentAbsentReportsExistsFalse(t *testing.T) {
	s := newTestStore(t)

	rec, exists, err := s.GetDocument(context.Background(), "users", "missing")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, rec)
}

func TestUpdateDocumentDottedPathTouchesOneNestedKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{
		"socialLinks": map[string]interface{}{"twitter": "https://twitter.com/a"},
	}, false))
	require.NoError(t, s.UpdateDocument(ctx, "users", "u1", storage.Record{
		"socialLinks.instagram": "https://instagram.com/a",
	}))

	rec, _, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	links := rec.Map("socialLinks")
	require.NotNil(t, links)
	assert.Equal(t, "https://twitter.com/a", links["twitter"])
	assert.Equal(t, "https://instagram.com/a", links["instagram"])
}

func TestUpdateDocumentMergesOntoAbsentBase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateDocument(ctx, "users", "u1", storage.Record{"online": true}))

	rec, exists, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	require.True(t, exists)
	assert.True(t, rec.Bool("online"))
}

func TestDeleteDocumentIsIdempotentAndRemovesSubcollections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "chats", "c1", storage.Record{"lastMessage": "hi"}, false))
	_, err := s.AddToSubcollection(ctx, "chats", "c1", "messages", storage.Record{"text": "hi"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDocument(ctx, "chats", "c1"))
	require.NoError(t, s.DeleteDocument(ctx, "chats", "c1"))

	_, exists, err := s.GetDocument(ctx, "chats", "c1")
	require.NoError(t, err)
	assert.False(t, exists)

	docs, err := s.QuerySubcollection(ctx, "chats", "c1", "messages", storage.Query{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueryEqualsReturnsExactSubset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs, err := s.Query(ctx, "users", storage.Query{
		Filters: []storage.Filter{{Field: "online", Op: storage.OpEqual, Value: true}},
	})
	require.NoError(t, err)
	assert.Empty(t, docs, "empty collection yields empty result")

	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"online": true}, false))
	require.NoError(t, s.SetDocument(ctx, "users", "u2", storage.Record{"online": false}, false))
	require.NoError(t, s.SetDocument(ctx, "users", "u3", storage.Record{"online": true}, false))

	docs, err = s.Query(ctx, "users", storage.Query{
		Filters: []storage.Filter{{Field: "online", Op: storage.OpEqual, Value: true}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.True(t, doc.Data.Bool("online"))
	}
}

func TestQueryArrayContains(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "chats", "a_b", storage.Record{"participants": []string{"a", "b"}}, false))
	require.NoError(t, s.SetDocument(ctx, "chats", "b_c", storage.Record{"participants": []string{"b", "c"}}, false))

	docs, err := s.Query(ctx, "chats", storage.Query{
		Filters: []storage.Filter{{Field: "participants", Op: storage.OpArrayContains, Value: "a"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a_b", docs[0].ID)
}

func TestQueryEqualsMatchesArrayValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "chats", "a_b", storage.Record{"participants": []string{"a", "b"}}, false))
	require.NoError(t, s.SetDocument(ctx, "chats", "b_c", storage.Record{"participants": []string{"b", "c"}}, false))
	require.NoError(t, s.SetDocument(ctx, "chats", "scalar", storage.Record{"participants": "a"}, false))

	docs, err := s.Query(ctx, "chats", storage.Query{
		Filters: []storage.Filter{{Field: "participants", Op: storage.OpEqual, Value: []string{"a", "b"}}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a_b", docs[0].ID)

	docs, err = s.Query(ctx, "chats", storage.Query{
		Filters: []storage.Filter{{Field: "participants", Op: storage.OpEqual, Value: []string{"a"}}},
	})
	require.NoError(t, err)
	assert.Empty(t, docs, "mismatched shapes do not match and do not panic")
}

func TestQueryOrderBreaksTiesOnDocumentID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	shared := time.Now()
	require.NoError(t, s.SetInSubcollection(ctx, "chats", "c1", "messages", "m-b", storage.Record{"timestamp": shared}, false))
	require.NoError(t, s.SetInSubcollection(ctx, "chats", "c1", "messages", "m-a", storage.Record{"timestamp": shared}, false))

	for i := 0; i < 50; i++ {
		docs, err := s.QuerySubcollection(ctx, "chats", "c1", "messages", storage.Query{
			OrderBy: &storage.Order{Field: "timestamp", Direction: storage.Desc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "m-b", docs[0].ID, "equal timestamps order by id, descending with the query")
		assert.Equal(t, "m-a", docs[1].ID)

		docs, err = s.QuerySubcollection(ctx, "chats", "c1", "messages", storage.Query{
			OrderBy: &storage.Order{Field: "timestamp", Direction: storage.Asc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "m-a", docs[0].ID)
		assert.Equal(t, "m-b", docs[1].ID)
	}
}

func TestQueryOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.SetDocument(ctx, "chats", id, storage.Record{
			"lastMessageTime": base.Add(time.Duration(i) * time.Minute),
		}, false))
	}

	docs, err := s.Query(ctx, "chats", storage.Query{
		OrderBy: &storage.Order{Field: "lastMessageTime", Direction: storage.Desc},
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c3", docs[0].ID)
	assert.Equal(t, "c2", docs[1].ID)
}

func TestQueryRejectsUnknownOperator(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Query(context.Background(), "users", storage.Query{
		Filters: []storage.Filter{{Field: "online", Op: ">", Value: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestSubcollectionExistsOnEmptyParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddToSubcollection(ctx, "chats", "never-set", "messages", storage.Record{"text": "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, exists, err := s.GetDocument(ctx, "chats", "never-set")
	require.NoError(t, err)
	assert.False(t, exists, "parent document holds no record")

	rec, exists, err := s.GetFromSubcollection(ctx, "chats", "never-set", "messages", id)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "hi", rec.String("text"))
}

func TestAddToSubcollectionGeneratesUniqueIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := s.AddToSubcollection(ctx, "chats", "c1", "messages", storage.Record{"text": "x"})
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestReadsReturnCopies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDocument(ctx, "users", "u1", storage.Record{"displayName": "Guest_1"}, false))

	rec, _, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	rec["displayName"] = "mutated"

	fresh, _, err := s.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Guest_1", fresh.String("displayName"))
}
