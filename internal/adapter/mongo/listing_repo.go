package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homeplate/cart-service/internal/app/config"
	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listingCollectionName = "listings"

type listingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.ListingRepository {
	return &listingRepository{
		collection: client.Database(cfg.Database).Collection(listingCollectionName),
	}
}

func (r *listingRepository) GetByID(ctx context.Context, listingID string) (*entity.Listing, error) {
	var listing entity.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing %s: %w", listingID, err)
	}
	return &listing, nil
}

func (r *listingRepository) GetByIDs(ctx context.Context, listingIDs []string) ([]entity.Listing, error) {
	if len(listingIDs) == 0 {
		return []entity.Listing{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": listingIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []entity.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

// GetStatuses fetches only the status field for a batch of listings. IDs
// with no backing document are absent from the result map.
func (r *listingRepository) GetStatuses(ctx context.Context, listingIDs []string) (map[string]entity.ListingStatus, error) {
	statuses := make(map[string]entity.ListingStatus, len(listingIDs))
	if len(listingIDs) == 0 {
		return statuses, nil
	}

	findOpts := options.Find().SetProjection(bson.M{"status": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": listingIDs}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing statuses: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID     string               `bson:"_id"`
			Status entity.ListingStatus `bson:"status"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode listing status: %w", err)
		}
		statuses[doc.ID] = doc.Status
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while reading listing statuses: %w", err)
	}
	return statuses, nil
}

// MarkSold flips available -> sold with a conditional update, so two
// buyers racing for the same listing cannot both win the write.
func (r *listingRepository) MarkSold(ctx context.Context, listingID string) error {
	filter := bson.M{
		"_id":    listingID,
		"status": entity.ListingStatusAvailable,
	}
	update := bson.M{
		"$set": bson.M{
			"status":     entity.ListingStatusSold,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark listing %s as sold: %w", listingID, err)
	}
	if result.MatchedCount == 0 {
		count, errCount := r.collection.CountDocuments(ctx, bson.M{"_id": listingID})
		if errCount == nil && count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

// MarkAvailable is the inverse transition, used when a pending order is
// cancelled and its listings go back on the market.
func (r *listingRepository) MarkAvailable(ctx context.Context, listingID string) error {
	filter := bson.M{
		"_id":    listingID,
		"status": entity.ListingStatusSold,
	}
	update := bson.M{
		"$set": bson.M{
			"status":     entity.ListingStatusAvailable,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark listing %s as available: %w", listingID, err)
	}
	if result.MatchedCount == 0 {
		count, errCount := r.collection.CountDocuments(ctx, bson.M{"_id": listingID})
		if errCount == nil && count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}
