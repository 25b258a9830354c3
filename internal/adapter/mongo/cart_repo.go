package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/homeplate/cart-service/internal/app/config"
	"github.com/homeplate/cart-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const cartCollectionName = "cart_items"

type cartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.CartRepository {
	return &cartRepository{
		collection: client.Database(cfg.Database).Collection(cartCollectionName),
	}
}

type cartRowDoc struct {
	UserID    string    `bson:"user_id"`
	ListingID string    `bson:"listing_id"`
	Quantity  int       `bson:"quantity"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// ReplaceForUser deletes every row the user has and reinserts the given
// set. This is deliberately not a diff: the in-memory cart is the whole
// truth and the last writer for a user wins.
func (r *cartRepository) ReplaceForUser(ctx context.Context, userID string, rows []repository.CartRow) error {
	if userID == "" {
		return fmt.Errorf("cannot save cart rows for empty userID")
	}

	if _, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete cart rows for user %s: %w", userID, err)
	}

	if len(rows) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		docs[i] = cartRowDoc{
			UserID:    userID,
			ListingID: row.ListingID,
			Quantity:  row.Quantity,
			UpdatedAt: now,
		}
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert cart rows for user %s: %w", userID, err)
	}
	return nil
}

func (r *cartRepository) ListForUser(ctx context.Context, userID string) ([]repository.CartRow, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list cart rows for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var rows []repository.CartRow
	for cursor.Next(ctx) {
		var doc cartRowDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode cart row: %w", err)
		}
		rows = append(rows, repository.CartRow{ListingID: doc.ListingID, Quantity: doc.Quantity})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while listing cart rows: %w", err)
	}
	return rows, nil
}
