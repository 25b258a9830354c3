package entity

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderItem is an immutable snapshot of one cart line at checkout time.
type OrderItem struct {
	ListingID    string  `bson:"listing_id"`
	Title        string  `bson:"title"`
	Quantity     int     `bson:"quantity"`
	PricePerUnit float64 `bson:"price_per_unit"`
	TotalPrice   float64 `bson:"total_price"`
}

func NewOrderItem(listingID, title string, quantity int, pricePerUnit float64) (*OrderItem, error) {
	if listingID == "" {
		return nil, errors.New("listing ID cannot be empty")
	}
	if quantity < 1 {
		return nil, errors.New("quantity must be positive")
	}
	if pricePerUnit < 0 {
		return nil, errors.New("price per unit cannot be negative")
	}
	return &OrderItem{
		ListingID:    listingID,
		Title:        title,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		TotalPrice:   float64(quantity) * pricePerUnit,
	}, nil
}

// Order embeds its items so that order, items and total are written in a
// single durable insert.
type Order struct {
	ID          string      `bson:"_id,omitempty"`
	UserID      string      `bson:"user_id"`
	Items       []OrderItem `bson:"items"`
	TotalAmount float64     `bson:"total_amount"`
	Status      OrderStatus `bson:"status"`
	CreatedAt   time.Time   `bson:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at"`
	Version     int         `bson:"version"`
}

func NewOrder(userID string, items []OrderItem) (*Order, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}

	order := &Order{
		UserID:    userID,
		Items:     items,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Version:   1,
	}
	order.CalculateTotalAmount()
	return order, nil
}

func (o *Order) CalculateTotalAmount() {
	var total float64
	for _, item := range o.Items {
		total += item.TotalPrice
	}
	o.TotalAmount = total
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending
}

func (o *Order) UpdateStatus(newStatus OrderStatus) error {
	if o.Status == newStatus {
		return nil
	}
	validTransitions := map[OrderStatus][]OrderStatus{
		StatusPending:   {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}
	allowed, ok := validTransitions[o.Status]
	if !ok {
		return fmt.Errorf("cannot transition from unknown status %s", o.Status)
	}
	for _, s := range allowed {
		if s == newStatus {
			o.Status = newStatus
			o.UpdatedAt = time.Now().UTC()
			o.Version++
			return nil
		}
	}
	return fmt.Errorf("invalid status transition from %s to %s", o.Status, newStatus)
}
