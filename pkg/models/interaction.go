package models

import "time"

// Interaction is one (user, product, action) event from the storefront's
// interaction log. Action kinds (view, add_to_cart, purchase, like) are
// opaque to the recommender; all kinds are weighted uniformly.
//
// UserID and ProductID share the storefront's identifier space but are not
// guaranteed to resolve against the current catalog snapshot: a product may
// have been unpublished after the interaction was recorded.
type Interaction struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"userId"`
	ProductID string    `json:"product_id" bson:"productId"`
	Action    string    `json:"action" bson:"action"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
