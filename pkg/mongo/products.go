package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/store"
)

func (s *Store) GetProduct(ctx context.Context, idOrSlug string) (models.Product, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "_id", Value: idOrSlug}},
		bson.D{{Key: "slug", Value: idOrSlug}},
	}}}
	var p models.Product
	if err := s.collection(productsCollection).FindOne(ctx, filter).Decode(&p); err != nil {
		return models.Product{}, mapReadError(err, "find product")
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	filter := bson.D{}
	if activeOnly {
		filter = bson.D{{Key: "active", Value: true}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.collection(productsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// UpsertProduct replaces the product, keeping its original creation time.
func (s *Store) UpsertProduct(ctx context.Context, p models.Product) error {
	existing, err := s.GetProduct(ctx, p.ID)
	switch {
	case err == nil:
		p.CreatedAt = existing.CreatedAt
	case !errors.Is(err, store.ErrNotFound):
		return err
	}
	p.SetTimestamps()

	opts := options.Replace().SetUpsert(true)
	_, err = s.collection(productsCollection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: p.ID}}, p, opts)
	return mapWriteError(err, "upsert product")
}

// discountDocument keeps the value as a decimal string so no precision is
// lost to floating point.
type discountDocument struct {
	Code       string              `bson:"_id"`
	Type       models.DiscountType `bson:"type"`
	Value      string              `bson:"value"`
	Active     bool                `bson:"active"`
	ValidUntil *time.Time          `bson:"valid_until,omitempty"`
}

func (s *Store) GetDiscount(ctx context.Context, code string) (models.DiscountCode, error) {
	var doc discountDocument
	err := s.collection(discountsCollection).FindOne(ctx, bson.D{{Key: "_id", Value: store.NormalizeCode(code)}}).Decode(&doc)
	if err != nil {
		return models.DiscountCode{}, mapReadError(err, "find discount")
	}
	value, err := decimal.NewFromString(doc.Value)
	if err != nil {
		return models.DiscountCode{}, fmt.Errorf("discount %s has invalid value %q: %w", doc.Code, doc.Value, err)
	}
	return models.DiscountCode{
		Discount:   models.Discount{Type: doc.Type, Value: value, Code: doc.Code},
		Active:     doc.Active,
		ValidUntil: doc.ValidUntil,
	}, nil
}

func (s *Store) UpsertDiscount(ctx context.Context, d models.DiscountCode) error {
	code := store.NormalizeCode(d.Code)
	if code == "" {
		return store.ErrEmptyCode
	}
	doc := discountDocument{
		Code:       code,
		Type:       d.Type,
		Value:      d.Value.String(),
		Active:     d.Active,
		ValidUntil: d.ValidUntil,
	}
	_, err := s.collection(discountsCollection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: code}}, doc, options.Replace().SetUpsert(true))
	return mapWriteError(err, "upsert discount")
}
