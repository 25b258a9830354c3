package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const listingKeyPrefix = "listing:"

type listingCache struct {
	client *redis.Client
}

func NewListingCache(client *redis.Client) repository.ListingCache {
	return &listingCache{client: client}
}

func (c *listingCache) getListingKey(listingID string) string {
	return listingKeyPrefix + listingID
}

func (c *listingCache) Get(ctx context.Context, listingID string) (*entity.Listing, error) {
	val, err := c.client.Get(ctx, c.getListingKey(listingID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing %s from redis: %w", listingID, err)
	}

	var listing entity.Listing
	if err := json.Unmarshal([]byte(val), &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached listing %s: %w", listingID, err)
	}
	return &listing, nil
}

func (c *listingCache) Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error {
	if listing == nil || listing.ID == "" {
		return errors.New("cannot cache nil listing or listing with empty ID")
	}

	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing %s: %w", listing.ID, err)
	}

	if err := c.client.Set(ctx, c.getListingKey(listing.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache listing %s: %w", listing.ID, err)
	}
	return nil
}

func (c *listingCache) Delete(ctx context.Context, listingID string) error {
	if err := c.client.Del(ctx, c.getListingKey(listingID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached listing %s: %w", listingID, err)
	}
	return nil
}
