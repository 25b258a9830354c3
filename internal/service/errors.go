package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAuthRequired      = errors.New("authentication required")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrOrderAccessDenied = errors.New("access denied to order")
)

// UnavailableError reports listings that are no longer purchasable,
// either on add-to-cart or during the checkout availability re-check.
type UnavailableError struct {
	ListingIDs []string
}

func (e *UnavailableError) Error() string {
	if len(e.ListingIDs) == 1 {
		return fmt.Sprintf("listing %s is no longer available", e.ListingIDs[0])
	}
	return fmt.Sprintf("some items in your cart are no longer available: %s", strings.Join(e.ListingIDs, ", "))
}
