package service

import (
	"sync"
	"time"

	"github.com/homeplate/cart-service/internal/platform/logger"
	"github.com/homeplate/cart-service/internal/repository"
)

// StoreManager hands out the session-scoped CartStore for each user,
// creating one on first use. Stores are kept for the process lifetime;
// Drop releases a user's store when their session ends.
type StoreManager struct {
	mu     sync.RWMutex
	stores map[string]*CartStore

	cartRepo     repository.CartRepository
	listingRepo  repository.ListingRepository
	listingCache repository.ListingCache
	log          logger.Logger
	cacheTTL     time.Duration
}

func NewStoreManager(
	cartRepo repository.CartRepository,
	listingRepo repository.ListingRepository,
	listingCache repository.ListingCache,
	log logger.Logger,
	cacheTTL time.Duration,
) *StoreManager {
	return &StoreManager{
		stores:       make(map[string]*CartStore),
		cartRepo:     cartRepo,
		listingRepo:  listingRepo,
		listingCache: listingCache,
		log:          log,
		cacheTTL:     cacheTTL,
	}
}

func (m *StoreManager) ForUser(userID string) *CartStore {
	m.mu.RLock()
	store, ok := m.stores[userID]
	m.mu.RUnlock()
	if ok {
		return store
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if store, ok := m.stores[userID]; ok {
		return store
	}
	store = NewCartStore(userID, m.cartRepo, m.listingRepo, m.listingCache, m.log, m.cacheTTL)
	m.stores[userID] = store
	return store
}

func (m *StoreManager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, userID)
}
