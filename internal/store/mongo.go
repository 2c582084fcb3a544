package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velora/recommend/pkg/models"
)

const (
	productsCollection     = "products"
	interactionsCollection = "userinteractions"
)

// Mongo reads the storefront's catalog and interaction collections. Both
// reads are bulk: the engine rebuilds its whole snapshot from them, so there
// is no pagination contract here.
//
// The storefront backend owns these collections and its schema has drifted
// over time (ObjectID vs string identifiers, missing nested documents), so
// every field is decoded leniently: unreadable nested values default rather
// than failing the load.
type Mongo struct {
	db     *mongo.Database
	logger *logrus.Logger
}

func NewMongo(db *mongo.Database, logger *logrus.Logger) *Mongo {
	return &Mongo{db: db, logger: logger}
}

// ActiveProducts fetches the active, published catalog with the projection
// the recommender needs.
func (s *Mongo) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	filter := bson.D{
		{Key: "isActive", Value: true},
		{Key: "status", Value: "published"},
	}
	projection := bson.D{
		{Key: "name", Value: 1},
		{Key: "description", Value: 1},
		{Key: "tags", Value: 1},
		{Key: "category", Value: 1},
		{Key: "images", Value: 1},
		{Key: "basePrice", Value: 1},
		{Key: "ratings", Value: 1},
		{Key: "slug", Value: 1},
	}

	cursor, err := s.db.Collection(productsCollection).Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	for cursor.Next(ctx) {
		p, ok := decodeProduct(cursor.Current)
		if !ok {
			s.logger.WithField("document", cursor.Current.String()).Warn("Skipping product without usable _id")
			continue
		}
		products = append(products, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Interactions fetches the full interaction log. An empty collection is a
// valid result.
func (s *Mongo) Interactions(ctx context.Context) ([]models.Interaction, error) {
	cursor, err := s.db.Collection(interactionsCollection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find interactions: %w", err)
	}
	defer cursor.Close(ctx)

	var interactions []models.Interaction
	for cursor.Next(ctx) {
		interactions = append(interactions, decodeInteraction(cursor.Current))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return interactions, nil
}

// decodeProduct reads a product document field by field. Everything except
// the identifier may be missing or of an unexpected type and defaults.
func decodeProduct(doc bson.Raw) (models.Product, bool) {
	id := stringValue(doc.Lookup("_id"))
	if id == "" {
		return models.Product{}, false
	}

	p := models.Product{
		ID:          id,
		Name:        stringValue(doc.Lookup("name")),
		Description: stringValue(doc.Lookup("description")),
		Category:    stringValue(doc.Lookup("category")),
		Slug:        stringValue(doc.Lookup("slug")),
		BasePrice:   floatValue(doc.Lookup("basePrice")),
	}

	if tags, err := arrayValues(doc.Lookup("tags")); err == nil {
		for _, t := range tags {
			if tag := stringValue(t); tag != "" {
				p.Tags = append(p.Tags, tag)
			}
		}
	}

	if images, err := arrayValues(doc.Lookup("images")); err == nil {
		for _, img := range images {
			if imgDoc, ok := img.DocumentOK(); ok {
				if url := stringValue(imgDoc.Lookup("url")); url != "" {
					p.Images = append(p.Images, models.ProductImage{URL: url})
				}
			}
		}
	}

	// A malformed ratings subdocument must default, never fail the load.
	if ratings, ok := doc.Lookup("ratings").DocumentOK(); ok {
		p.Ratings.Average = floatValue(ratings.Lookup("average"))
		p.Ratings.Count = int(floatValue(ratings.Lookup("count")))
	}

	return p, true
}

func decodeInteraction(doc bson.Raw) models.Interaction {
	in := models.Interaction{
		ID:        stringValue(doc.Lookup("_id")),
		UserID:    stringValue(doc.Lookup("userId")),
		ProductID: stringValue(doc.Lookup("productId")),
		Action:    stringValue(doc.Lookup("action")),
	}
	if ts, ok := doc.Lookup("timestamp").TimeOK(); ok {
		in.Timestamp = ts
	}
	return in
}

// stringValue stringifies the identifier-ish value shapes that occur in the
// storefront's collections: plain strings and ObjectIDs.
func stringValue(rv bson.RawValue) string {
	if s, ok := rv.StringValueOK(); ok {
		return s
	}
	if oid, ok := rv.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return ""
}

// floatValue reads any numeric BSON shape as float64, defaulting to 0.
func floatValue(rv bson.RawValue) float64 {
	if f, ok := rv.DoubleOK(); ok {
		return f
	}
	if i, ok := rv.Int32OK(); ok {
		return float64(i)
	}
	if i, ok := rv.Int64OK(); ok {
		return float64(i)
	}
	if d, ok := rv.Decimal128OK(); ok {
		if f, err := strconv.ParseFloat(d.String(), 64); err == nil {
			return f
		}
	}
	return 0
}

func arrayValues(rv bson.RawValue) ([]bson.RawValue, error) {
	arr, ok := rv.ArrayOK()
	if !ok {
		return nil, fmt.Errorf("not an array")
	}
	return arr.Values()
}
