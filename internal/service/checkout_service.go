package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/homeplate/cart-service/internal/adapter/email"
	"github.com/homeplate/cart-service/internal/adapter/nats"
	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/platform/logger"
	"github.com/homeplate/cart-service/internal/repository"
)

const (
	natsSubjectOrderCreated = "order.created"
	natsSubjectListingSold  = "listing.sold"
)

type CheckoutResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckoutService drives the cart-to-order state machine. A checkout
// either commits the order with its items in one durable write and
// reports success, or fails before any order write and leaves the cart
// untouched so the user can retry or edit.
type CheckoutService interface {
	ProcessCheckout(ctx context.Context, userID, userEmail string) (*CheckoutResult, error)
	CheckoutState(userID string) entity.CheckoutState
	ResetCheckout(userID string)
}

type checkoutService struct {
	stores       *StoreManager
	orderRepo    repository.OrderRepository
	listingRepo  repository.ListingRepository
	listingCache repository.ListingCache
	msgPublisher nats.MessagePublisher
	emailSender  email.Sender
	log          logger.Logger
}

// NewCheckoutService wires the orchestrator. emailSender may be nil when
// SMTP is not configured; receipts are best-effort.
func NewCheckoutService(
	stores *StoreManager,
	orderRepo repository.OrderRepository,
	listingRepo repository.ListingRepository,
	listingCache repository.ListingCache,
	msgPublisher nats.MessagePublisher,
	emailSender email.Sender,
	log logger.Logger,
) CheckoutService {
	return &checkoutService{
		stores:       stores,
		orderRepo:    orderRepo,
		listingRepo:  listingRepo,
		listingCache: listingCache,
		msgPublisher: msgPublisher,
		emailSender:  emailSender,
		log:          log,
	}
}

// ProcessCheckout runs the checkout steps in order: empty-cart guard,
// availability re-check, order creation (items embedded, one write),
// best-effort listing sold transitions, purchased-item removal. The availability
// re-check reads the repository directly rather than the cache: time has
// passed since the items were added and another buyer may have bought
// them in between. The re-check detects that race; the conditional
// MarkSold write narrows what remains of it.
func (s *checkoutService) ProcessCheckout(ctx context.Context, userID, userEmail string) (*CheckoutResult, error) {
	s.log.Infof("Processing checkout for user %s", userID)

	store := s.stores.ForUser(userID)
	if err := store.BeginCheckout(); err != nil {
		return nil, err
	}

	fail := func(message string) *CheckoutResult {
		store.FinishCheckoutFailure(message)
		return &CheckoutResult{Success: false, Error: message}
	}

	cart := store.Snapshot()
	if cart.IsEmpty() {
		s.log.Warnf("User %s attempted to check out an empty cart", userID)
		return fail(ErrCartEmpty.Error()), nil
	}

	statuses, err := s.listingRepo.GetStatuses(ctx, cart.ListingIDs())
	if err != nil {
		s.log.Errorf("Availability re-check failed for user %s: %v", userID, err)
		return fail(fmt.Sprintf("failed to verify item availability: %v", err)), nil
	}
	var unavailable []string
	for _, listingID := range cart.ListingIDs() {
		status, ok := statuses[listingID]
		if !ok || !status.Purchasable() {
			unavailable = append(unavailable, listingID)
		}
	}
	if len(unavailable) > 0 {
		s.log.Warnf("Checkout for user %s aborted, unavailable listings: %v", userID, unavailable)
		return fail((&UnavailableError{ListingIDs: unavailable}).Error()), nil
	}

	orderItems := make([]entity.OrderItem, len(cart.Items))
	for i, cartItem := range cart.Items {
		// Snapshot price from the cart, not a fresh fetch: the buyer
		// pays what the cart showed.
		orderItem, itemErr := entity.NewOrderItem(cartItem.ListingID, cartItem.Title, cartItem.Quantity, cartItem.UnitPrice)
		if itemErr != nil {
			s.log.Errorf("Invalid cart item for listing %s: %v", cartItem.ListingID, itemErr)
			return fail(fmt.Sprintf("invalid item in cart (listing %s): %v", cartItem.ListingID, itemErr)), nil
		}
		orderItems[i] = *orderItem
	}

	order, err := entity.NewOrder(userID, orderItems)
	if err != nil {
		s.log.Errorf("Failed to build order for user %s: %v", userID, err)
		return fail(fmt.Sprintf("failed to prepare order: %v", err)), nil
	}

	orderID, err := s.orderRepo.Create(ctx, repository.CreateOrderParams{
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	})
	if err != nil {
		s.log.Errorf("Failed to save order for user %s: %v", userID, err)
		return fail(fmt.Sprintf("failed to create order: %v", err)), nil
	}
	order.ID = orderID

	// The order is durable from here on. Listing transitions, cart row
	// cleanup, events and receipts are best-effort: a failure is logged
	// but does not fail the checkout.
	s.markListingsSold(ctx, orderID, cart.ListingIDs())

	if err := store.RemoveCheckedOut(ctx, cart.ListingIDs()); err != nil {
		s.log.Warnf("Order %s: failed to clear purchased items for user %s: %v", orderID, userID, err)
	}

	if err := s.msgPublisher.Publish(ctx, natsSubjectOrderCreated, order); err != nil {
		s.log.Warnf("Failed to publish order created event for order %s: %v", orderID, err)
	}
	s.sendReceipt(ctx, order, userEmail)

	store.FinishCheckoutSuccess(orderID)
	s.log.Infof("Order %s placed successfully for user %s, total %.2f", orderID, userID, order.TotalAmount)
	return &CheckoutResult{Success: true, OrderID: orderID}, nil
}

// markListingsSold issues the available -> sold transitions concurrently;
// they are independent of one another.
func (s *checkoutService) markListingsSold(ctx context.Context, orderID string, listingIDs []string) {
	var wg sync.WaitGroup
	for _, listingID := range listingIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.listingRepo.MarkSold(ctx, id); err != nil {
				s.log.Warnf("Order %s: failed to mark listing %s as sold: %v", orderID, id, err)
				return
			}
			if err := s.listingCache.Delete(ctx, id); err != nil {
				s.log.Warnf("Order %s: failed to invalidate cached listing %s: %v", orderID, id, err)
			}
			if err := s.msgPublisher.Publish(ctx, natsSubjectListingSold, map[string]string{"listing_id": id, "order_id": orderID}); err != nil {
				s.log.Warnf("Order %s: failed to publish listing sold event for %s: %v", orderID, id, err)
			}
		}(listingID)
	}
	wg.Wait()
}

func (s *checkoutService) sendReceipt(ctx context.Context, order *entity.Order, userEmail string) {
	if s.emailSender == nil || userEmail == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	subject := fmt.Sprintf("Your order %s", order.ID)
	if err := s.emailSender.Send(sendCtx, []string{userEmail}, subject, RenderOrderReceipt(order)); err != nil {
		s.log.Warnf("Failed to send receipt email for order %s: %v", order.ID, err)
	}
}

func (s *checkoutService) CheckoutState(userID string) entity.CheckoutState {
	return s.stores.ForUser(userID).CheckoutState()
}

func (s *checkoutService) ResetCheckout(userID string) {
	s.stores.ForUser(userID).ResetCheckout()
}
