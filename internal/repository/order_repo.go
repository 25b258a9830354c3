package repository

import (
	"context"

	"github.com/homeplate/cart-service/internal/domain/entity"
)

type CreateOrderParams struct {
	UserID      string
	Items       []entity.OrderItem
	TotalAmount float64
	Status      entity.OrderStatus
}

type UpdateOrderStatusParams struct {
	OrderID string
	Status  entity.OrderStatus
	Version int
}

// OrderRepository persists orders. Create writes the order together with
// its embedded items in one durable insert, so there is no window in
// which a pending order exists without items.
type OrderRepository interface {
	Create(ctx context.Context, params CreateOrderParams) (string, error)
	GetByID(ctx context.Context, orderID string) (*entity.Order, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, params UpdateOrderStatusParams) error
}
