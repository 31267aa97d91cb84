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

func (s *Store) CreateOrder(ctx context.Context, o models.Order) error {
	_, err := s.collection(ordersCollection).InsertOne(ctx, o)
	return mapWriteError(err, "insert order")
}

func (s *Store) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	if err := s.collection(ordersCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&o); err != nil {
		return models.Order{}, mapReadError(err, "find order")
	}
	return o, nil
}

// MarkPaid only transitions pending orders, so concurrent confirmations
// keep the first payment time.
func (s *Store) MarkPaid(ctx context.Context, id string, paidAt time.Time) (models.Order, error) {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "status", Value: models.OrderPending}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: models.OrderPaid},
		{Key: "paid_at", Value: paidAt.UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o models.Order
	err := s.collection(ordersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&o)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, fmt.Errorf("mark order paid: %w", err)
	}

	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if current.Status == models.OrderPaid {
		return current, nil
	}
	return models.Order{}, store.ErrConflict
}
