package engine

import (
	"sort"

	"github.com/velora/recommend/pkg/models"
)

const popularityReason = "Highly rated by our community"

// popular is the context-free fallback ranking: catalog products by average
// rating, descending, ties in canonical order. The score is a constant 1.0
// placeholder, not a relevance measure. Ratings were already defaulted to 0
// at load time for products with no or unreadable review summaries.
func (s *snapshot) popular(topN int) []models.Recommendation {
	if topN <= 0 || len(s.products) == 0 {
		return nil
	}

	rows := make([]int, len(s.products))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return s.products[rows[a]].Ratings.Average > s.products[rows[b]].Ratings.Average
	})

	if len(rows) > topN {
		rows = rows[:topN]
	}

	recs := make([]models.Recommendation, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, s.entry(row, popularityReason, 1.0))
	}
	return recs
}
