package engine

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// contentIndex holds the fitted TF-IDF vectors for one catalog snapshot.
// Row i corresponds to the product at canonical position i. The index is
// immutable once built; a reload builds a replacement from scratch.
type contentIndex struct {
	vectors [][]float64
	norms   []float64
}

type scoredRow struct {
	row   int
	score float64
}

func buildContentIndex(vectorizer *TFIDFVectorizer, docs []string) *contentIndex {
	vectors, _ := vectorizer.FitTransform(docs)

	norms := make([]float64, len(vectors))
	for i, vec := range vectors {
		norms[i] = floats.Norm(vec, 2)
	}

	return &contentIndex{vectors: vectors, norms: norms}
}

// similarTo ranks every other row by cosine similarity against the query row
// and returns the topN best. Equal scores keep canonical (row) order so
// results are deterministic. A zero vector scores 0 against everything,
// including itself.
func (ix *contentIndex) similarTo(row, topN int) []scoredRow {
	if row < 0 || row >= len(ix.vectors) || topN <= 0 {
		return nil
	}

	query := ix.vectors[row]
	queryNorm := ix.norms[row]

	candidates := make([]scoredRow, 0, len(ix.vectors)-1)
	for i := range ix.vectors {
		if i == row {
			continue
		}
		candidates = append(candidates, scoredRow{row: i, score: ix.cosine(query, queryNorm, i)})
	}

	// Stable sort over canonical order: ties resolve to the earlier row.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

func (ix *contentIndex) cosine(query []float64, queryNorm float64, row int) float64 {
	denom := queryNorm * ix.norms[row]
	if denom == 0 {
		return 0
	}
	return floats.Dot(query, ix.vectors[row]) / denom
}
