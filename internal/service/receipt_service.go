package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/platform/logger"
	"github.com/homeplate/cart-service/internal/repository"
)

type ReceiptService interface {
	GenerateOrderReceipt(ctx context.Context, orderID, userID string) ([]byte, string, error)
}

type receiptService struct {
	orderRepo repository.OrderRepository
	log       logger.Logger
}

func NewReceiptService(orderRepo repository.OrderRepository, log logger.Logger) ReceiptService {
	return &receiptService{orderRepo: orderRepo, log: log}
}

// RenderOrderReceipt formats a plain-text receipt for an order. It is
// shared by the receipt download endpoint and the post-checkout email.
func RenderOrderReceipt(order *entity.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order ID: %s\nTotal Amount: %.2f\nStatus: %s\n\nItems:\n",
		order.ID, order.TotalAmount, order.Status)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s (x%d) @ %.2f = %.2f\n",
			item.Title, item.Quantity, item.PricePerUnit, item.TotalPrice)
	}
	return b.String()
}

func (s *receiptService) GenerateOrderReceipt(ctx context.Context, orderID, userID string) ([]byte, string, error) {
	s.log.Infof("Generating receipt for order %s, requested by user %s", orderID, userID)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to retrieve order %s: %w", orderID, err)
	}
	if order.UserID != userID {
		s.log.Warnf("User %s attempted to generate receipt for order %s belonging to user %s", userID, orderID, order.UserID)
		return nil, "", ErrOrderAccessDenied
	}

	fileName := fmt.Sprintf("receipt_%s.txt", orderID)
	return []byte(RenderOrderReceipt(order)), fileName, nil
}
