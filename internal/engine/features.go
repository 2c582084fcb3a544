package engine

import (
	"strings"

	"github.com/velora/recommend/pkg/models"
)

// CombinedText builds the text blob the content index is fitted on:
// name, description and space-joined tags, separated by single spaces.
// Missing fields contribute empty strings; a product with no text at all
// yields "  " rather than being dropped from the catalog. Casing, stop words
// and tokenization are the vectorizer's concern, not this function's.
func CombinedText(p models.Product) string {
	return p.Name + " " + p.Description + " " + strings.Join(p.Tags, " ")
}
