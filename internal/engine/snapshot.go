package engine

import "github.com/velora/recommend/pkg/models"

// snapshot is the complete, immutable state one reload produces: the catalog
// in canonical (load) order, the fitted content index and the interaction
// view. Snapshots are published with a single atomic pointer swap and never
// mutated afterwards, so concurrent queries always see either the old or the
// new state whole.
type snapshot struct {
	products []models.Product
	rowByID  map[string]int
	index    *contentIndex
	log      *interactionView
}

// interactionView indexes the interaction log for co-occurrence queries.
// Positions reference the backing interactions slice, so repeated
// interactions by the same user are preserved (they count multiple times in
// the collaborative tally).
type interactionView struct {
	interactions []models.Interaction
	byUser       map[string][]int
	byProduct    map[string][]int
}

func newSnapshot(vectorizer *TFIDFVectorizer, products []models.Product, interactions []models.Interaction) *snapshot {
	rowByID := make(map[string]int, len(products))
	docs := make([]string, len(products))
	for i := range products {
		products[i].CombinedText = CombinedText(products[i])
		rowByID[products[i].ID] = i
		docs[i] = products[i].CombinedText
	}

	return &snapshot{
		products: products,
		rowByID:  rowByID,
		index:    buildContentIndex(vectorizer, docs),
		log:      newInteractionView(interactions),
	}
}

func newInteractionView(interactions []models.Interaction) *interactionView {
	view := &interactionView{
		interactions: interactions,
		byUser:       make(map[string][]int),
		byProduct:    make(map[string][]int),
	}
	for i, in := range interactions {
		view.byUser[in.UserID] = append(view.byUser[in.UserID], i)
		view.byProduct[in.ProductID] = append(view.byProduct[in.ProductID], i)
	}
	return view
}

// entry builds a fresh recommendation from the product at the given canonical
// row. The returned value shares nothing with the snapshot.
func (s *snapshot) entry(row int, reason string, score float64) models.Recommendation {
	p := s.products[row]
	return models.Recommendation{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.BasePrice,
		Image:     p.PrimaryImage(),
		Slug:      p.Slug,
		Reason:    reason,
		Score:     score,
	}
}
