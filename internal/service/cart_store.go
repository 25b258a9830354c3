package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/platform/logger"
	"github.com/homeplate/cart-service/internal/repository"
)

const defaultListingCacheTTL = 5 * time.Minute

// CartStore owns one user's in-memory cart and checkout state for the
// lifetime of their session. Durable cart rows are kept in sync with a
// destructive full replace after every mutation; the in-memory set is
// authoritative between syncs. A mutation that succeeded locally is never
// rolled back when the sync fails, so local and durable state can diverge
// until the next successful save.
type CartStore struct {
	userID string

	mu       sync.Mutex
	cart     *entity.Cart
	checkout entity.CheckoutState

	cartRepo     repository.CartRepository
	listingRepo  repository.ListingRepository
	listingCache repository.ListingCache
	log          logger.Logger
	cacheTTL     time.Duration
}

func NewCartStore(
	userID string,
	cartRepo repository.CartRepository,
	listingRepo repository.ListingRepository,
	listingCache repository.ListingCache,
	log logger.Logger,
	cacheTTL time.Duration,
) *CartStore {
	if cacheTTL <= 0 {
		cacheTTL = defaultListingCacheTTL
	}
	return &CartStore{
		userID:       userID,
		cart:         entity.NewCart(userID),
		checkout:     entity.NewCheckoutState(),
		cartRepo:     cartRepo,
		listingRepo:  listingRepo,
		listingCache: listingCache,
		log:          log,
		cacheTTL:     cacheTTL,
	}
}

func (s *CartStore) UserID() string {
	return s.userID
}

// Snapshot returns a deep copy of the current cart.
func (s *CartStore) Snapshot() *entity.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Copy()
}

func (s *CartStore) fetchListing(ctx context.Context, listingID string) (*entity.Listing, error) {
	cached, cacheErr := s.listingCache.Get(ctx, listingID)
	if cacheErr == nil && cached != nil {
		s.log.Debugf("Listing %s found in cache", listingID)
		return cached, nil
	}
	if cacheErr != nil && !errors.Is(cacheErr, repository.ErrNotFound) {
		s.log.Warnf("Error getting listing %s from cache: %v. Fetching from repository.", listingID, cacheErr)
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing %s not found: %w", listingID, err)
	}
	if errSet := s.listingCache.Set(ctx, listing, s.cacheTTL); errSet != nil {
		s.log.Warnf("Failed to cache listing %s: %v", listingID, errSet)
	}
	return listing, nil
}

// AddItem validates that the listing is still available, snapshots its
// title, price and image into the cart (merging quantities when the
// listing is already there) and resynchronizes the durable rows.
func (s *CartStore) AddItem(ctx context.Context, listingID string, quantity int) (*entity.Cart, error) {
	userID := s.userID
	s.log.Infof("Adding item to cart: UserID=%s, ListingID=%s, Quantity=%d", userID, listingID, quantity)

	if quantity < 1 {
		return nil, entity.ErrInvalidQuantity
	}

	listing, err := s.fetchListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.Status.Purchasable() {
		s.log.Warnf("Attempted to add unavailable listing %s (status %s) to cart of user %s", listingID, listing.Status, userID)
		return nil, &UnavailableError{ListingIDs: []string{listingID}}
	}

	item, err := entity.NewCartItem(listing.ID, listing.Title, listing.Price, quantity, listing.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("could not build cart item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.AddItem(*item); err != nil {
		return nil, fmt.Errorf("could not add item to cart: %w", err)
	}
	if err := s.saveLocked(ctx); err != nil {
		s.log.Errorf("Cart for user %s updated locally but not persisted: %v", userID, err)
		return nil, fmt.Errorf("cart updated locally but not persisted: %w", err)
	}
	s.log.Infof("Item added to cart successfully for user %s", userID)
	return s.cart.Copy(), nil
}

func (s *CartStore) UpdateItemQuantity(ctx context.Context, listingID string, quantity int) (*entity.Cart, error) {
	userID := s.userID
	s.log.Infof("Updating item quantity: UserID=%s, ListingID=%s, Quantity=%d", userID, listingID, quantity)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.UpdateItemQuantity(listingID, quantity); err != nil {
		return nil, err
	}
	if err := s.saveLocked(ctx); err != nil {
		s.log.Errorf("Cart for user %s updated locally but not persisted: %v", userID, err)
		return nil, fmt.Errorf("cart updated locally but not persisted: %w", err)
	}
	return s.cart.Copy(), nil
}

func (s *CartStore) RemoveItem(ctx context.Context, listingID string) (*entity.Cart, error) {
	userID := s.userID
	s.log.Infof("Removing item from cart: UserID=%s, ListingID=%s", userID, listingID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.RemoveItem(listingID); err != nil {
		return nil, err
	}
	if err := s.saveLocked(ctx); err != nil {
		s.log.Errorf("Cart for user %s updated locally but not persisted: %v", userID, err)
		return nil, fmt.Errorf("cart updated locally but not persisted: %w", err)
	}
	return s.cart.Copy(), nil
}

// RemoveCheckedOut drops the given listings from the cart and syncs the
// durable rows. Only the purchased items go; an item added from another
// tab while the checkout was in flight stays in the cart.
func (s *CartStore) RemoveCheckedOut(ctx context.Context, listingIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, listingID := range listingIDs {
		if err := s.cart.RemoveItem(listingID); err != nil && !errors.Is(err, entity.ErrItemNotFound) {
			return err
		}
	}
	return s.saveLocked(ctx)
}

// SaveToDatabase replaces all of the user's durable cart rows with the
// current in-memory set. Last writer wins across devices.
func (s *CartStore) SaveToDatabase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *CartStore) saveLocked(ctx context.Context) error {
	rows := make([]repository.CartRow, len(s.cart.Items))
	for i, item := range s.cart.Items {
		rows[i] = repository.CartRow{ListingID: item.ListingID, Quantity: item.Quantity}
	}
	return s.cartRepo.ReplaceForUser(ctx, s.userID, rows)
}

// LoadFromDatabase replaces the in-memory cart with the durable rows
// joined against current listing data. Rows whose listing is gone or no
// longer available are dropped; the count of dropped rows is returned so
// the caller can warn the user.
func (s *CartStore) LoadFromDatabase(ctx context.Context) (*entity.Cart, int, error) {
	userID := s.userID
	s.log.Infof("Loading cart from database for user %s", userID)

	rows, err := s.cartRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("could not load cart rows: %w", err)
	}

	listingIDs := make([]string, len(rows))
	for i, row := range rows {
		listingIDs[i] = row.ListingID
	}
	listings, err := s.listingRepo.GetByIDs(ctx, listingIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("could not load listings for cart: %w", err)
	}
	byID := make(map[string]entity.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}

	fresh := entity.NewCart(userID)
	dropped := 0
	for _, row := range rows {
		listing, ok := byID[row.ListingID]
		if !ok || !listing.Status.Purchasable() {
			dropped++
			continue
		}
		item, itemErr := entity.NewCartItem(listing.ID, listing.Title, listing.Price, row.Quantity, listing.ImageURL)
		if itemErr != nil {
			s.log.Warnf("Skipping invalid cart row for listing %s: %v", row.ListingID, itemErr)
			dropped++
			continue
		}
		if err := fresh.AddItem(*item); err != nil {
			return nil, 0, fmt.Errorf("could not rebuild cart: %w", err)
		}
	}

	if dropped > 0 {
		s.log.Warnf("Dropped %d unavailable item(s) while loading cart for user %s", dropped, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = fresh
	return s.cart.Copy(), dropped, nil
}

func (s *CartStore) CheckoutState() entity.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout
}

// BeginCheckout moves the state machine into processing; a checkout
// already in flight is rejected.
func (s *CartStore) BeginCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout.Begin()
}

func (s *CartStore) FinishCheckoutSuccess(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkout.Succeed(orderID)
}

func (s *CartStore) FinishCheckoutFailure(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkout.Fail(message)
}

// ResetCheckout returns the state machine to idle so a later attempt is
// unaffected by a stale success or error.
func (s *CartStore) ResetCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkout.Reset()
}
