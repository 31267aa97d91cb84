package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Cart lines of one owner, oldest first
	{
		CollectionName: cartItemsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "owner_key", Value: 1},
				{Key: "added_at", Value: 1},
			},
			Options: options.Index().SetName("idx_cart_owner_added"),
		},
	},
	// Stale cart cleanup
	{
		CollectionName: cartItemsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("idx_cart_updated"),
		},
	},
	{
		CollectionName: productsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_product_slug_unique"),
		},
	},
	{
		CollectionName: productsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "active", Value: 1},
				{Key: "name", Value: 1},
			},
			Options: options.Index().SetName("idx_product_listing"),
		},
	},
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "payment_session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_payment_session_unique"),
		},
	},
	// Order history of signed-in customers
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "owner.user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_customer_orders"),
		},
	},
}

// EnsureIndexes creates every required index. Existing indexes are kept.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, idxConfig := range requiredIndexes {
		indexName, err := s.collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idxConfig.CollectionName, err)
		}
		s.logger.Debug("index ensured", "index", indexName, "collection", idxConfig.CollectionName)
	}
	return nil
}
