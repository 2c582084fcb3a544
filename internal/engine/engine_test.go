package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora/recommend/pkg/models"
)

type stubStore struct {
	products        []models.Product
	interactions    []models.Interaction
	productsErr     error
	interactionsErr error
	loads           int
}

func (s *stubStore) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	s.loads++
	if s.productsErr != nil {
		return nil, s.productsErr
	}
	return append([]models.Product(nil), s.products...), nil
}

func (s *stubStore) Interactions(ctx context.Context) ([]models.Interaction, error) {
	if s.interactionsErr != nil {
		return nil, s.interactionsErr
	}
	return append([]models.Interaction(nil), s.interactions...), nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testCatalog() []models.Product {
	return []models.Product{
		{
			ID:        "p1",
			Name:      "red shoes",
			Slug:      "red-shoes",
			BasePrice: 59.99,
			Images:    []models.ProductImage{{URL: "https://cdn.example.com/p1.jpg"}},
			Ratings:   models.ProductRatings{Average: 4.5, Count: 12},
		},
		{
			ID:        "p2",
			Name:      "red sneakers",
			Slug:      "red-sneakers",
			BasePrice: 74.50,
			Ratings:   models.ProductRatings{Average: 4.8, Count: 30},
		},
		{
			ID:        "p3",
			Name:      "blue hat",
			Slug:      "blue-hat",
			BasePrice: 19.00,
			Ratings:   models.ProductRatings{Average: 3.0, Count: 4},
		},
	}
}

func newTestEngine(t *testing.T, store *stubStore) *Engine {
	t.Helper()
	e := New(store, testLogger())
	require.NoError(t, e.Load(context.Background()))
	return e
}

func TestCombinedText(t *testing.T) {
	t.Run("joins name, description and tags", func(t *testing.T) {
		p := models.Product{Name: "red shoes", Description: "leather", Tags: []string{"sale", "footwear"}}
		assert.Equal(t, "red shoes leather sale footwear", CombinedText(p))
	})

	t.Run("all fields empty still yields a string", func(t *testing.T) {
		assert.Equal(t, "  ", CombinedText(models.Product{}))
	})
}

func TestEngine_RecommendSimilarProducts(t *testing.T) {
	e := newTestEngine(t, &stubStore{products: testCatalog()})
	ctx := context.Background()

	t.Run("shared vocabulary ranks above disjoint", func(t *testing.T) {
		recs, err := e.RecommendSimilarProducts(ctx, "p1", 2)
		require.NoError(t, err)
		require.Len(t, recs, 2)

		assert.Equal(t, "p2", recs[0].ProductID)
		assert.Equal(t, "p3", recs[1].ProductID)
		assert.Equal(t, "Similar to red shoes", recs[0].Reason)
		assert.Greater(t, recs[0].Score, recs[1].Score)
	})

	t.Run("never includes the queried product", func(t *testing.T) {
		for _, n := range []int{1, 2, 3, 10} {
			recs, err := e.RecommendSimilarProducts(ctx, "p1", n)
			require.NoError(t, err)
			for _, r := range recs {
				assert.NotEqual(t, "p1", r.ProductID)
			}
		}
	})

	t.Run("scores are in unit range and non-increasing", func(t *testing.T) {
		recs, err := e.RecommendSimilarProducts(ctx, "p2", 10)
		require.NoError(t, err)

		prev := 1.0
		for _, r := range recs {
			assert.GreaterOrEqual(t, r.Score, 0.0)
			assert.LessOrEqual(t, r.Score, 1.0+1e-9)
			assert.LessOrEqual(t, r.Score, prev)
			prev = r.Score
		}
	})

	t.Run("unknown product resolves empty", func(t *testing.T) {
		recs, err := e.RecommendSimilarProducts(ctx, "missing", 5)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("result never exceeds the requested length", func(t *testing.T) {
		for _, n := range []int{0, 1, 2, 50} {
			recs, err := e.RecommendSimilarProducts(ctx, "p1", n)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(recs), n)
		}
	})

	t.Run("entries carry catalog fields", func(t *testing.T) {
		recs, err := e.RecommendSimilarProducts(ctx, "p2", 1)
		require.NoError(t, err)
		require.Len(t, recs, 1)

		assert.Equal(t, "p1", recs[0].ProductID)
		assert.Equal(t, "red shoes", recs[0].Name)
		assert.Equal(t, 59.99, recs[0].Price)
		assert.Equal(t, "red-shoes", recs[0].Slug)
		require.NotNil(t, recs[0].Image)
		assert.Equal(t, "https://cdn.example.com/p1.jpg", *recs[0].Image)
	})

	t.Run("product without images has a null image", func(t *testing.T) {
		recs, err := e.RecommendSimilarProducts(ctx, "p1", 1)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "p2", recs[0].ProductID)
		assert.Nil(t, recs[0].Image)
	})
}

func TestEngine_RecommendForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("co-occurring product precedes fallback entries", func(t *testing.T) {
		// u1 touched p1 and p2; u2 shares p1 and also touched p3.
		e := newTestEngine(t, &stubStore{
			products: testCatalog(),
			interactions: []models.Interaction{
				{ID: "i1", UserID: "u1", ProductID: "p1", Action: "view"},
				{ID: "i2", UserID: "u1", ProductID: "p2", Action: "view"},
				{ID: "i3", UserID: "u2", ProductID: "p1", Action: "view"},
				{ID: "i4", UserID: "u2", ProductID: "p3", Action: "purchase"},
			},
		})

		recs, err := e.RecommendForUser(ctx, "u1", 5)
		require.NoError(t, err)
		require.NotEmpty(t, recs)

		assert.Equal(t, "p3", recs[0].ProductID)
		assert.Equal(t, "Users with similar taste bought this", recs[0].Reason)
		assert.Equal(t, 1.0, recs[0].Score)
		for _, r := range recs[1:] {
			assert.Equal(t, "Highly rated by our community", r.Reason)
		}
	})

	t.Run("fallback may repeat a collaborative product", func(t *testing.T) {
		e := newTestEngine(t, &stubStore{
			products: testCatalog(),
			interactions: []models.Interaction{
				{ID: "i1", UserID: "u1", ProductID: "p1", Action: "view"},
				{ID: "i2", UserID: "u2", ProductID: "p1", Action: "view"},
				{ID: "i3", UserID: "u2", ProductID: "p2", Action: "view"},
			},
		})

		recs, err := e.RecommendForUser(ctx, "u1", 4)
		require.NoError(t, err)
		require.Len(t, recs, 4)

		// p2 arrives once collaboratively and again from the rating fallback.
		assert.Equal(t, "p2", recs[0].ProductID)
		assert.Equal(t, "p2", recs[1].ProductID)
		assert.NotEqual(t, recs[0].Reason, recs[1].Reason)
	})

	t.Run("user without interactions gets the popularity ranking", func(t *testing.T) {
		e := newTestEngine(t, &stubStore{products: testCatalog()})

		recs, err := e.RecommendForUser(ctx, "stranger", 3)
		require.NoError(t, err)
		require.Len(t, recs, 3)

		// By average rating: p2 (4.8), p1 (4.5), p3 (3.0).
		assert.Equal(t, "p2", recs[0].ProductID)
		assert.Equal(t, "p1", recs[1].ProductID)
		assert.Equal(t, "p3", recs[2].ProductID)
		for _, r := range recs {
			assert.Equal(t, "Highly rated by our community", r.Reason)
			assert.Equal(t, 1.0, r.Score)
		}
	})

	t.Run("repeat interactions raise the tally", func(t *testing.T) {
		e := newTestEngine(t, &stubStore{
			products: testCatalog(),
			interactions: []models.Interaction{
				{ID: "i1", UserID: "u1", ProductID: "p1", Action: "view"},
				{ID: "i2", UserID: "u2", ProductID: "p1", Action: "view"},
				{ID: "i3", UserID: "u2", ProductID: "p3", Action: "view"},
				{ID: "i4", UserID: "u2", ProductID: "p3", Action: "purchase"},
				{ID: "i5", UserID: "u2", ProductID: "p2", Action: "view"},
			},
		})

		recs, err := e.RecommendForUser(ctx, "u1", 2)
		require.NoError(t, err)
		require.Len(t, recs, 2)

		assert.Equal(t, "p3", recs[0].ProductID)
		assert.Equal(t, 2.0, recs[0].Score)
		assert.Equal(t, "p2", recs[1].ProductID)
		assert.Equal(t, 1.0, recs[1].Score)
	})

	t.Run("equal tallies resolve by catalog order", func(t *testing.T) {
		e := newTestEngine(t, &stubStore{
			products: testCatalog(),
			interactions: []models.Interaction{
				{ID: "i1", UserID: "u1", ProductID: "p1", Action: "view"},
				{ID: "i2", UserID: "u2", ProductID: "p1", Action: "view"},
				{ID: "i3", UserID: "u2", ProductID: "p3", Action: "view"},
				{ID: "i4", UserID: "u2", ProductID: "p2", Action: "view"},
			},
		})

		recs, err := e.RecommendForUser(ctx, "u1", 2)
		require.NoError(t, err)
		require.Len(t, recs, 2)

		// p2 and p3 both tally 1; p2 was loaded earlier.
		assert.Equal(t, "p2", recs[0].ProductID)
		assert.Equal(t, "p3", recs[1].ProductID)
	})

	t.Run("dangling interaction references are dropped, not replaced", func(t *testing.T) {
		e := newTestEngine(t, &stubStore{
			products: testCatalog(),
			interactions: []models.Interaction{
				{ID: "i1", UserID: "u1", ProductID: "p1", Action: "view"},
				{ID: "i2", UserID: "u2", ProductID: "p1", Action: "view"},
				{ID: "i3", UserID: "u2", ProductID: "ghost", Action: "view"},
				{ID: "i4", UserID: "u2", ProductID: "ghost", Action: "view"},
				{ID: "i5", UserID: "u2", ProductID: "p2", Action: "view"},
			},
		})

		// "ghost" out-tallies p2 and takes the single collaborative slot, but
		// is absent from the catalog: the slot is lost to the fallback, not
		// handed to p2.
		recs, err := e.RecommendForUser(ctx, "u1", 1)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Highly rated by our community", recs[0].Reason)
	})

	t.Run("result never exceeds the requested length", func(t *testing.T) {
		e := newTestEngine(t, &stubStore{products: testCatalog()})
		for _, n := range []int{0, 1, 3, 50} {
			recs, err := e.RecommendForUser(ctx, "u1", n)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(recs), n)
		}
	})
}

func TestEngine_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store yields empty results, not errors", func(t *testing.T) {
		e := newTestEngine(t, &stubStore{})

		recs, err := e.RecommendForUser(ctx, "u1", 5)
		require.NoError(t, err)
		assert.Empty(t, recs)

		recs, err = e.RecommendSimilarProducts(ctx, "p1", 5)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("reload is idempotent for an unchanged store", func(t *testing.T) {
		store := &stubStore{
			products: testCatalog(),
			interactions: []models.Interaction{
				{ID: "i1", UserID: "u1", ProductID: "p1", Action: "view"},
				{ID: "i2", UserID: "u2", ProductID: "p1", Action: "view"},
				{ID: "i3", UserID: "u2", ProductID: "p3", Action: "view"},
			},
		}
		e := newTestEngine(t, store)

		before, err := e.RecommendSimilarProducts(ctx, "p1", 3)
		require.NoError(t, err)
		beforeUser, err := e.RecommendForUser(ctx, "u1", 3)
		require.NoError(t, err)

		require.NoError(t, e.Load(ctx))

		after, err := e.RecommendSimilarProducts(ctx, "p1", 3)
		require.NoError(t, err)
		afterUser, err := e.RecommendForUser(ctx, "u1", 3)
		require.NoError(t, err)

		assert.Equal(t, before, after)
		assert.Equal(t, beforeUser, afterUser)
	})

	t.Run("store failure keeps the previous snapshot", func(t *testing.T) {
		store := &stubStore{products: testCatalog()}
		e := newTestEngine(t, store)

		store.productsErr = errors.New("connection refused")
		require.Error(t, e.Load(ctx))

		recs, err := e.RecommendSimilarProducts(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("zero products replaces the snapshot with an empty one", func(t *testing.T) {
		store := &stubStore{products: testCatalog()}
		e := newTestEngine(t, store)

		store.products = nil
		require.NoError(t, e.Load(ctx))

		recs, err := e.RecommendSimilarProducts(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("first query builds the snapshot on demand", func(t *testing.T) {
		store := &stubStore{products: testCatalog()}
		e := New(store, testLogger())

		recs, err := e.RecommendSimilarProducts(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
		assert.Equal(t, 1, store.loads)
	})

	t.Run("interaction load failure surfaces and keeps the old snapshot", func(t *testing.T) {
		store := &stubStore{
			products:     testCatalog(),
			interactions: []models.Interaction{{ID: "i1", UserID: "u1", ProductID: "p1", Action: "view"}},
		}
		e := newTestEngine(t, store)

		store.interactionsErr = errors.New("cursor timeout")
		require.Error(t, e.Load(ctx))

		recs, err := e.RecommendForUser(ctx, "nobody", 1)
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})
}
