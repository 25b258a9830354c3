package service

import (
	"context"
	"testing"

	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/platform/logger"
	"github.com/homeplate/cart-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingOrder(orderID, userID string) *entity.Order {
	item, _ := entity.NewOrderItem("L1", "Homemade soup", 2, 250)
	order, _ := entity.NewOrder(userID, []entity.OrderItem{*item})
	order.ID = orderID
	return order
}

func newOrderFixture() (*MockOrderRepository, *MockListingRepository, *MockListingCache, *MockMessagePublisher, OrderService) {
	orderRepo := new(MockOrderRepository)
	listingRepo := new(MockListingRepository)
	listingCache := new(MockListingCache)
	publisher := new(MockMessagePublisher)
	svc := NewOrderService(orderRepo, listingRepo, listingCache, publisher, logger.NewNop())
	return orderRepo, listingRepo, listingCache, publisher, svc
}

func TestOrderService_GetOrder_DeniesForeignOrder(t *testing.T) {
	orderRepo, _, _, _, svc := newOrderFixture()
	orderRepo.On("GetByID", mock.Anything, "order1").Return(pendingOrder("order1", "owner"), nil)

	_, err := svc.GetOrder(context.Background(), "order1", "intruder")

	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestOrderService_CancelOrder_RelistsItems(t *testing.T) {
	orderRepo, listingRepo, listingCache, publisher, svc := newOrderFixture()
	orderRepo.On("GetByID", mock.Anything, "order1").Return(pendingOrder("order1", "user1"), nil)
	orderRepo.On("UpdateStatus", mock.Anything, repository.UpdateOrderStatusParams{
		OrderID: "order1",
		Status:  entity.StatusCancelled,
		Version: 1,
	}).Return(nil)
	listingRepo.On("MarkAvailable", mock.Anything, "L1").Return(nil)
	listingCache.On("Delete", mock.Anything, "L1").Return(nil)
	publisher.On("Publish", mock.Anything, "order.status.updated", mock.Anything).Return(nil)

	order, err := svc.CancelOrder(context.Background(), "order1", "user1")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, order.Status)
	orderRepo.AssertExpectations(t)
	listingRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderService_CancelOrder_RejectsNonPending(t *testing.T) {
	orderRepo, listingRepo, _, _, svc := newOrderFixture()
	completed := pendingOrder("order1", "user1")
	completed.Status = entity.StatusCompleted
	orderRepo.On("GetByID", mock.Anything, "order1").Return(completed, nil)

	_, err := svc.CancelOrder(context.Background(), "order1", "user1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be cancelled")
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	listingRepo.AssertNotCalled(t, "MarkAvailable", mock.Anything, mock.Anything)
}

func TestOrderService_CancelOrder_StatusWriteConflict(t *testing.T) {
	orderRepo, listingRepo, _, _, svc := newOrderFixture()
	orderRepo.On("GetByID", mock.Anything, "order1").Return(pendingOrder("order1", "user1"), nil)
	orderRepo.On("UpdateStatus", mock.Anything, mock.Anything).Return(repository.ErrConflict)

	_, err := svc.CancelOrder(context.Background(), "order1", "user1")

	require.Error(t, err)
	listingRepo.AssertNotCalled(t, "MarkAvailable", mock.Anything, mock.Anything)
}
