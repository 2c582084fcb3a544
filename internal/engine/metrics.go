package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_snapshot_loads_total",
		Help: "Snapshot load attempts by outcome",
	}, []string{"status"})

	loadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_snapshot_load_duration_seconds",
		Help:    "Wall time of successful snapshot loads, including index construction",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	snapshotProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recommender_snapshot_products",
		Help: "Products in the current snapshot",
	})

	snapshotInteractions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recommender_snapshot_interactions",
		Help: "Interactions in the current snapshot",
	})

	servedEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_served_entries_total",
		Help: "Recommendation entries served by source signal",
	}, []string{"source"})
)
