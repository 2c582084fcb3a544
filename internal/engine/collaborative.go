package engine

import (
	"math"
	"sort"

	"github.com/velora/recommend/pkg/models"
)

const collaborativeReason = "Users with similar taste bought this"

// collaborative recommends by behavioral overlap: products the target user
// touched → users sharing any of them → everything else those users touched,
// tallied by interaction count. Scores are the raw tallies; they are not on
// the cosine scale of the content index and are deliberately left that way.
func (s *snapshot) collaborative(userID string, topN int) []models.Recommendation {
	if topN <= 0 || len(s.log.interactions) == 0 {
		return nil
	}

	// Distinct products the target user interacted with, any action kind.
	own := make(map[string]struct{})
	for _, i := range s.log.byUser[userID] {
		own[s.log.interactions[i].ProductID] = struct{}{}
	}
	if len(own) == 0 {
		return nil
	}

	// Users who share any of those products. The target user lands in this
	// set too; harmless, since its own products are excluded below.
	cohort := make(map[string]struct{})
	for productID := range own {
		for _, i := range s.log.byProduct[productID] {
			cohort[s.log.interactions[i].UserID] = struct{}{}
		}
	}

	// Tally every cohort interaction outside the user's own products.
	// Repeat interactions by the same user count each time.
	tally := make(map[string]int)
	for user := range cohort {
		for _, i := range s.log.byUser[user] {
			productID := s.log.interactions[i].ProductID
			if _, seen := own[productID]; !seen {
				tally[productID]++
			}
		}
	}
	if len(tally) == 0 {
		return nil
	}

	type candidate struct {
		productID string
		count     int
		row       int // canonical position, or MaxInt for dangling references
	}
	candidates := make([]candidate, 0, len(tally))
	for productID, count := range tally {
		row := math.MaxInt
		if r, ok := s.rowByID[productID]; ok {
			row = r
		}
		candidates = append(candidates, candidate{productID: productID, count: count, row: row})
	}

	// Count descending, ties by canonical order. Dangling candidates have no
	// canonical position; they sort last among equals, by ID for determinism.
	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.count != cb.count {
			return ca.count > cb.count
		}
		if ca.row != cb.row {
			return ca.row < cb.row
		}
		return ca.productID < cb.productID
	})

	// Truncate first, then drop candidates missing from the catalog: a
	// dangling interaction reference shrinks the result rather than pulling
	// in the next-ranked product.
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		if c.row == math.MaxInt {
			continue
		}
		recs = append(recs, s.entry(c.row, collaborativeReason, float64(c.count)))
	}
	return recs
}
