package models

// ProductImage is one entry of a product's image gallery. Only the URL is
// relevant to recommendations; the storefront keeps alt text and ordering.
type ProductImage struct {
	URL string `json:"url" bson:"url"`
}

// ProductRatings is the denormalized review summary maintained by the
// storefront backend. Average is 0 when a product has no reviews or the
// nested document could not be read.
type ProductRatings struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

// Product is a read-only catalog snapshot record. Instances are built
// wholesale on each data load and never mutated afterwards.
type Product struct {
	ID          string         `json:"id" bson:"_id"`
	Name        string         `json:"name" bson:"name"`
	Description string         `json:"description" bson:"description"`
	Tags        []string       `json:"tags" bson:"tags"`
	Category    string         `json:"category" bson:"category"`
	Images      []ProductImage `json:"images" bson:"images"`
	BasePrice   float64        `json:"base_price" bson:"basePrice"`
	Ratings     ProductRatings `json:"ratings" bson:"ratings"`
	Slug        string         `json:"slug" bson:"slug"`

	// CombinedText is the derived text feature (name + description + tags),
	// populated by the loader. Never nil-equivalent: an all-empty product
	// still carries an empty string here.
	CombinedText string `json:"-" bson:"-"`
}

// PrimaryImage returns a copy of the first image URL, or nil when the
// product has no images.
func (p *Product) PrimaryImage() *string {
	if len(p.Images) == 0 {
		return nil
	}
	url := p.Images[0].URL
	return &url
}
