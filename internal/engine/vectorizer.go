package engine

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// TFIDFVectorizer fits a term-frequency/inverse-document-frequency weight
// space over a document corpus. Each Fit is a fresh fit: vocabulary and
// document frequencies are computed from the given corpus only and nothing
// carries over between fits.
//
// Weighting follows the smoothed scheme of the vectorizer the storefront's
// previous recommender used: idf = ln((1+n)/(1+df)) + 1, rows L2-normalized.
// Normalized rows make cosine similarity a plain dot product downstream.
type TFIDFVectorizer struct {
	stopWords map[string]struct{}
}

func NewTFIDFVectorizer() *TFIDFVectorizer {
	return &TFIDFVectorizer{stopWords: englishStopWords()}
}

// FitTransform fits the vocabulary on docs and returns one dense weight
// vector per document, aligned with the input order, plus the vocabulary
// size. Documents with no usable terms get zero vectors.
func (v *TFIDFVectorizer) FitTransform(docs []string) ([][]float64, int) {
	tokenized := make([][]string, len(docs))
	vocab := make(map[string]int)
	df := make(map[string]int)

	for i, doc := range docs {
		tokens := v.tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				df[tok]++
			}
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for term, col := range vocab {
		idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([][]float64, len(docs))
	for i, tokens := range tokenized {
		row := make([]float64, len(vocab))
		for _, tok := range tokens {
			row[vocab[tok]] += 1
		}
		var sumSq float64
		for col := range row {
			if row[col] != 0 {
				row[col] *= idf[col]
				sumSq += row[col] * row[col]
			}
		}
		if sumSq > 0 {
			invNorm := 1 / math.Sqrt(sumSq)
			for col := range row {
				row[col] *= invNorm
			}
		}
		rows[i] = row
	}

	return rows, len(vocab)
}

// tokenize lowercases NFC-normalized text and extracts alphanumeric runs of
// two or more characters, dropping English stop words.
func (v *TFIDFVectorizer) tokenize(doc string) []string {
	cleaned := strings.ToLower(norm.NFC.String(doc))

	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() >= 2 {
			tok := b.String()
			if _, stop := v.stopWords[tok]; !stop {
				tokens = append(tokens, tok)
			}
		}
		b.Reset()
	}

	for _, r := range cleaned {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func englishStopWords() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an",
		"and", "any", "are", "as", "at", "be", "because", "been", "before",
		"being", "below", "between", "both", "but", "by", "can", "cannot",
		"could", "did", "do", "does", "doing", "down", "during", "each",
		"few", "for", "from", "further", "had", "has", "have", "having",
		"he", "her", "here", "hers", "herself", "him", "himself", "his",
		"how", "i", "if", "in", "into", "is", "it", "its", "itself", "just",
		"me", "more", "most", "my", "myself", "no", "nor", "not", "now",
		"of", "off", "on", "once", "only", "or", "other", "our", "ours",
		"ourselves", "out", "over", "own", "same", "she", "should", "so",
		"some", "such", "than", "that", "the", "their", "theirs", "them",
		"themselves", "then", "there", "these", "they", "this", "those",
		"through", "to", "too", "under", "until", "up", "very", "was", "we",
		"were", "what", "when", "where", "which", "while", "who", "whom",
		"why", "will", "with", "would", "you", "your", "yours", "yourself",
		"yourselves",
	}

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
