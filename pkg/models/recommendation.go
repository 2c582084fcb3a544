package models

// Recommendation is one ranked entry of a recommendation response. Entries
// are freshly constructed per request and carry copies of catalog fields, so
// callers never hold references into the engine's snapshot.
//
// Score is intentionally not on a single scale across sources: content
// similarity yields cosine values in [0,1], the collaborative model yields a
// raw co-occurrence tally, and the popularity fallback a constant 1.0.
type Recommendation struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     *string `json:"image"`
	Slug      string  `json:"slug"`
	Reason    string  `json:"reason"`
	Score     float64 `json:"score"`
}

// RecommendationResponse is the wire envelope shared by the user and
// product recommendation endpoints.
type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// RateLimitInfo reports the state of a client's rate-limit window.
type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}
