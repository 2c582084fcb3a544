package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/velora/recommend/pkg/models"
)

// Store is the engine's view of the catalog store. Both reads are bulk and
// synchronous; retry and pagination concerns live behind this interface.
type Store interface {
	// ActiveProducts returns the active, published catalog in a stable order.
	ActiveProducts(ctx context.Context) ([]models.Product, error)
	// Interactions returns the full interaction log.
	Interactions(ctx context.Context) ([]models.Interaction, error)
}

// Engine owns the recommendation state: one versioned snapshot of products,
// derived text features, the TF-IDF content index and the interaction view.
// Load replaces the snapshot with a single atomic swap; queries are read-only
// against whatever snapshot they observe and run fully in parallel with each
// other and with reloads.
type Engine struct {
	store      Store
	vectorizer *TFIDFVectorizer
	logger     *logrus.Logger

	loadMu sync.Mutex // serializes reloads, never held by queries
	snap   atomic.Pointer[snapshot]
}

func New(store Store, logger *logrus.Logger) *Engine {
	return &Engine{
		store:      store,
		vectorizer: NewTFIDFVectorizer(),
		logger:     logger,
	}
}

// Load rebuilds the snapshot from the store. The build happens locally and
// the finished snapshot is published atomically, so in-flight queries see
// either the previous snapshot or the new one, never a partial state. On a
// store error the previous snapshot stays in place. A store that returns
// zero products yields an empty snapshot — queries then answer empty rather
// than serving stale data.
func (e *Engine) Load(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	started := time.Now()

	products, err := e.store.ActiveProducts(ctx)
	if err != nil {
		loadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load products: %w", err)
	}

	interactions, err := e.store.Interactions(ctx)
	if err != nil {
		loadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load interactions: %w", err)
	}

	if len(products) == 0 {
		e.logger.Warn("No active published products in store; publishing empty snapshot")
	}

	snap := newSnapshot(e.vectorizer, products, interactions)
	e.snap.Store(snap)

	loadsTotal.WithLabelValues("ok").Inc()
	loadDuration.Observe(time.Since(started).Seconds())
	snapshotProducts.Set(float64(len(products)))
	snapshotInteractions.Set(float64(len(interactions)))

	e.logger.WithFields(logrus.Fields{
		"products":     len(products),
		"interactions": len(interactions),
		"elapsed":      time.Since(started),
	}).Info("Snapshot loaded")

	return nil
}

// RecommendForUser produces the hybrid "for you" list: collaborative results
// first, then — only to cover a shortfall — popularity fallback entries.
// Collaborative entries always rank ahead of fallback entries regardless of
// score magnitude; that is a policy choice, not a score comparison. The two
// lists are not de-duplicated against each other, so a fallback entry may
// repeat a collaborative product below topN (preserved storefront behavior).
func (e *Engine) RecommendForUser(ctx context.Context, userID string, topN int) ([]models.Recommendation, error) {
	snap, err := e.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		return nil, nil
	}

	recs := snap.collaborative(userID, topN)
	servedEntries.WithLabelValues("collaborative").Add(float64(len(recs)))

	if len(recs) < topN {
		fallback := snap.popular(topN - len(recs))
		servedEntries.WithLabelValues("popularity").Add(float64(len(fallback)))
		recs = append(recs, fallback...)
	}

	if len(recs) > topN {
		recs = recs[:topN]
	}
	return recs, nil
}

// RecommendSimilarProducts ranks the catalog by content similarity to the
// given product. Unknown products resolve to an empty result, not an error.
func (e *Engine) RecommendSimilarProducts(ctx context.Context, productID string, topN int) ([]models.Recommendation, error) {
	snap, err := e.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		return nil, nil
	}

	row, ok := snap.rowByID[productID]
	if !ok {
		return nil, nil
	}

	reason := "Similar to " + snap.products[row].Name
	scored := snap.index.similarTo(row, topN)

	recs := make([]models.Recommendation, 0, len(scored))
	for _, sr := range scored {
		recs = append(recs, snap.entry(sr.row, reason, sr.score))
	}
	servedEntries.WithLabelValues("content").Add(float64(len(recs)))
	return recs, nil
}

// currentSnapshot returns the published snapshot, building one on demand for
// the first query after startup.
func (e *Engine) currentSnapshot(ctx context.Context) (*snapshot, error) {
	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	return e.snap.Load(), nil
}
