package docstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/domain"
)

// runStoreContract exercises the behaviour every Store implementation shares.
// newStore must return an empty store scoped to the calling test.
func runStoreContract(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Run("insert then get round-trips the body", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.NewID(ctx, "food_logs")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := s.Insert(ctx, "food_logs", id, map[string]any{
			"id":              "ignored",
			"ownerId":         "u1",
			"mealDescription": "pizza",
			"rating":          5,
			"photos":          []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, id, got)

		doc, err := s.Get(ctx, "food_logs", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "pizza", doc.Data["mealDescription"])
		assert.Equal(t, float64(5), doc.Data["rating"])
		assert.Equal(t, []any{"a", "b"}, doc.Data["photos"])
		assert.NotContains(t, doc.Data, "id", "id is the key, not part of the body")
	})

	t.Run("insert with empty id assigns one", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Insert(context.Background(), "trips", "", map[string]any{"title": "x"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "trips", "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("query filters by owner and sorts by date desc then id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		insert := func(id, owner, date string) {
			_, err := s.Insert(ctx, "journal_entries", id, map[string]any{"ownerId": owner, "date": date})
			require.NoError(t, err)
		}
		insert("b", "u1", "2025-06-01")
		insert("a", "u1", "2025-06-01")
		insert("c", "u1", "2025-06-03")
		insert("d", "u2", "2025-06-05")

		docs, err := s.Query(ctx, docstore.Query{
			Collection: "journal_entries",
			Filters:    []docstore.Filter{{Field: "ownerId", Op: docstore.Eq, Value: "u1"}},
			OrderBy:    []docstore.Order{{Field: "date", Desc: true}},
		})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, []string{"c", "a", "b"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	})

	t.Run("query range and numeric filters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i, r := range []int{1, 3, 5} {
			_, err := s.Insert(ctx, "food_logs", string(rune('a'+i)), map[string]any{"rating": r, "date": "2025-01-0" + string(rune('1'+i))})
			require.NoError(t, err)
		}

		q := docstore.Query{Collection: "food_logs"}.
			Where("rating", docstore.Gte, 3).
			Where("date", docstore.Lt, "2025-01-03")
		docs, err := s.Query(ctx, q)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "b", docs[0].ID)
	})

	t.Run("query with limit", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, id := range []string{"x", "y", "z"} {
			_, err := s.Insert(ctx, "trips", id, map[string]any{"ownerId": "u1"})
			require.NoError(t, err)
		}

		docs, err := s.Query(ctx, docstore.Query{Collection: "trips", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("query rejects unsafe field names", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Query(context.Background(), docstore.Query{
			Collection: "trips",
			Filters:    []docstore.Filter{{Field: "x'; drop table documents; --", Op: docstore.Eq, Value: "1"}},
		})
		assert.Error(t, err)
	})

	t.Run("update merges top-level keys and null clears", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id, err := s.Insert(ctx, "journal_entries", "", map[string]any{
			"title":    "Day 1",
			"text":     "Arrived",
			"location": map[string]any{"name": "Louvre"},
		})
		require.NoError(t, err)

		err = s.Update(ctx, "journal_entries", id, map[string]any{"title": "Day One", "location": nil})
		require.NoError(t, err)

		doc, err := s.Get(ctx, "journal_entries", id)
		require.NoError(t, err)
		assert.Equal(t, "Day One", doc.Data["title"])
		assert.Equal(t, "Arrived", doc.Data["text"], "keys absent from the patch are untouched")
		assert.Nil(t, doc.Data["location"])
	})

	t.Run("update missing returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), "trips", "nope", map[string]any{"title": "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete removes and second delete is not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id, err := s.Insert(ctx, "trips", "", map[string]any{"ownerId": "u1"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "trips", id))

		_, err = s.Get(ctx, "trips", id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "trips", id), domain.ErrNotFound)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Insert(ctx, "trips", "same", map[string]any{"kind": "trip"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, "food_logs", "same", map[string]any{"kind": "food"})
		require.NoError(t, err)

		doc, err := s.Get(ctx, "food_logs", "same")
		require.NoError(t, err)
		assert.Equal(t, "food", doc.Data["kind"])
	})
}
