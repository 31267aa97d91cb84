package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/store"
)

// cartItemDocument is a cart line stored with its owner.
type cartItemDocument struct {
	models.CartItem `bson:",inline"`
	OwnerKey        string           `bson:"owner_key"`
	Owner           models.CartOwner `bson:"owner"`
}

func (s *Store) ListItems(ctx context.Context, owner models.CartOwner) ([]models.CartItem, error) {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return nil, store.ErrNoOwner
	}
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}})
	cursor, err := s.collection(cartItemsCollection).Find(ctx, bson.D{{Key: "owner_key", Value: key}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find cart items: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []cartItemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	items := make([]models.CartItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.CartItem)
	}
	return items, nil
}

func (s *Store) InsertItem(ctx context.Context, owner models.CartOwner, item models.CartItem) error {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return store.ErrNoOwner
	}
	_, err := s.collection(cartItemsCollection).InsertOne(ctx, cartItemDocument{CartItem: item, OwnerKey: key, Owner: owner})
	return mapWriteError(err, "insert cart item")
}

func (s *Store) UpdateItemQuantity(ctx context.Context, owner models.CartOwner, itemID string, quantity int, now time.Time) (models.CartItem, error) {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return models.CartItem{}, store.ErrNoOwner
	}
	filter := bson.D{{Key: "_id", Value: itemID}, {Key: "owner_key", Value: key}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: quantity},
			{Key: "total_price", Value: bson.D{{Key: "$multiply", Value: bson.A{"$unit_price", int64(quantity)}}}},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc cartItemDocument
	err := s.collection(cartItemsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		return models.CartItem{}, mapReadError(err, "update cart item")
	}
	return doc.CartItem, nil
}

func (s *Store) DeleteItem(ctx context.Context, owner models.CartOwner, itemID string) error {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return store.ErrNoOwner
	}
	res, err := s.collection(cartItemsCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: itemID}, {Key: "owner_key", Value: key}})
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context, owner models.CartOwner) (int64, error) {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return 0, store.ErrNoOwner
	}
	res, err := s.collection(cartItemsCollection).DeleteMany(ctx, bson.D{{Key: "owner_key", Value: key}})
	if err != nil {
		return 0, fmt.Errorf("delete cart: %w", err)
	}
	return res.DeletedCount, nil
}

// DeleteStale finds carts whose newest line predates before and deletes
// their lines. Lines written after the scan survive.
func (s *Store) DeleteStale(ctx context.Context, before time.Time) ([]models.CartOwner, error) {
	stale, err := s.staleCarts(ctx, before)
	if err != nil {
		return nil, err
	}

	owners := make([]models.CartOwner, 0, len(stale))
	for _, cart := range stale {
		filter := bson.D{
			{Key: "owner_key", Value: cart.OwnerKey},
			{Key: "added_at", Value: bson.D{{Key: "$lt", Value: before}}},
			{Key: "updated_at", Value: bson.D{{Key: "$lt", Value: before}}},
		}
		if _, err := s.collection(cartItemsCollection).DeleteMany(ctx, filter); err != nil {
			return owners, fmt.Errorf("delete stale cart %s: %w", cart.OwnerKey, err)
		}
		owners = append(owners, cart.Owner)
	}
	return owners, nil
}

func mapReadError(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mapWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
