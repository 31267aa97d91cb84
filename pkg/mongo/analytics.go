package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"pohrebni-vence.cz/storefront/pkg/models"
)

type staleCart struct {
	OwnerKey    string           `bson:"_id"`
	Owner       models.CartOwner `bson:"owner"`
	LastTouched time.Time        `bson:"last_touched"`
	ItemCount   int              `bson:"item_count"`
}

// staleCarts groups cart lines by owner and keeps carts whose latest add or
// update is older than before.
func (s *Store) staleCarts(ctx context.Context, before time.Time) ([]staleCart, error) {
	pipeline := bson.A{
		bson.D{
			{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$owner_key"},
				{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner"}}},
				{Key: "last_added", Value: bson.D{{Key: "$max", Value: "$added_at"}}},
				{Key: "last_updated", Value: bson.D{{Key: "$max", Value: "$updated_at"}}},
				{Key: "item_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}},
		},
		bson.D{
			{Key: "$project", Value: bson.D{
				{Key: "owner", Value: 1},
				{Key: "item_count", Value: 1},
				{Key: "last_touched", Value: bson.D{{Key: "$max", Value: bson.A{"$last_added", "$last_updated"}}}},
			}},
		},
		bson.D{
			{Key: "$match", Value: bson.D{
				{Key: "last_touched", Value: bson.D{{Key: "$lt", Value: before}}},
			}},
		},
		bson.D{
			{Key: "$sort", Value: bson.D{{Key: "last_touched", Value: 1}}},
		},
	}

	cursor, err := s.collection(cartItemsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate stale carts: %w", err)
	}
	defer cursor.Close(ctx)

	var results []staleCart
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode stale carts: %w", err)
	}
	s.logger.Debug("stale carts found", "count", len(results), "before", before)
	return results, nil
}
