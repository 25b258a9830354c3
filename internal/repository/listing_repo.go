package repository

import (
	"context"
	"time"

	"github.com/homeplate/cart-service/internal/domain/entity"
)

// ListingRepository reads listing state and performs the one write the
// checkout flow needs: the available -> sold transition. MarkSold is
// conditional on the listing still being available and returns
// ErrConflict when another buyer got there first.
type ListingRepository interface {
	GetByID(ctx context.Context, listingID string) (*entity.Listing, error)
	GetByIDs(ctx context.Context, listingIDs []string) ([]entity.Listing, error)
	GetStatuses(ctx context.Context, listingIDs []string) (map[string]entity.ListingStatus, error)
	MarkSold(ctx context.Context, listingID string) error
	MarkAvailable(ctx context.Context, listingID string) error
}

// ListingCache holds listing snapshots with a TTL. It is consulted on
// add-to-cart only; the checkout availability re-check always goes to the
// repository for a fresh read.
type ListingCache interface {
	Get(ctx context.Context, listingID string) (*entity.Listing, error)
	Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error
	Delete(ctx context.Context, listingID string) error
}
