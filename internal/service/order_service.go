package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/homeplate/cart-service/internal/adapter/nats"
	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/platform/logger"
	"github.com/homeplate/cart-service/internal/repository"
)

const natsSubjectOrderStatusUpdated = "order.status.updated"

// OrderService covers everything after checkout: order lookups for the
// buyer's transaction history and cancellation of pending orders.
type OrderService interface {
	GetOrder(ctx context.Context, orderID, userID string) (*entity.Order, error)
	ListOrders(ctx context.Context, userID string) ([]entity.Order, error)
	CancelOrder(ctx context.Context, orderID, userID string) (*entity.Order, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	listingRepo  repository.ListingRepository
	listingCache repository.ListingCache
	msgPublisher nats.MessagePublisher
	log          logger.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	listingRepo repository.ListingRepository,
	listingCache repository.ListingCache,
	msgPublisher nats.MessagePublisher,
	log logger.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		listingRepo:  listingRepo,
		listingCache: listingCache,
		msgPublisher: msgPublisher,
		log:          log,
	}
}

func (s *orderService) GetOrder(ctx context.Context, orderID, userID string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("order %s not found: %w", orderID, err)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	if order.UserID != userID {
		s.log.Warnf("User %s attempted to access order %s belonging to user %s", userID, orderID, order.UserID)
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// CancelOrder cancels a pending order and puts its listings back on the
// market. The status write is guarded by the order's version so a
// concurrent update loses cleanly.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID string) (*entity.Order, error) {
	s.log.Infof("User %s attempting to cancel order %s", userID, orderID)

	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, fmt.Errorf("order %s cannot be cancelled at its current status '%s'", orderID, order.Status)
	}

	currentVersion := order.Version
	if err := order.UpdateStatus(entity.StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to set order status to cancelled: %w", err)
	}

	err = s.orderRepo.UpdateStatus(ctx, repository.UpdateOrderStatusParams{
		OrderID: order.ID,
		Status:  order.Status,
		Version: currentVersion,
	})
	if err != nil {
		s.log.Errorf("Failed to save cancelled status for order %s: %v", orderID, err)
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	for _, item := range order.Items {
		if err := s.listingRepo.MarkAvailable(ctx, item.ListingID); err != nil {
			s.log.Warnf("Order %s: failed to relist %s after cancellation: %v", orderID, item.ListingID, err)
			continue
		}
		if err := s.listingCache.Delete(ctx, item.ListingID); err != nil {
			s.log.Warnf("Order %s: failed to invalidate cached listing %s: %v", orderID, item.ListingID, err)
		}
	}

	if err := s.msgPublisher.Publish(ctx, natsSubjectOrderStatusUpdated, order); err != nil {
		s.log.Warnf("Failed to publish order status updated event for order %s: %v", orderID, err)
	}

	s.log.Infof("Order %s cancelled successfully by user %s", orderID, userID)
	return order, nil
}
