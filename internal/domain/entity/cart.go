package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not found in cart")
)

// CartItem carries a snapshot of the listing taken at add-time. Title,
// unit price and image are not refreshed afterwards: the buyer pays the
// price that was shown when the item went into the cart.
type CartItem struct {
	ID        string  `json:"id"`
	ListingID string  `json:"listing_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
}

func NewCartItem(listingID, title string, unitPrice float64, quantity int, imageURL string) (*CartItem, error) {
	if listingID == "" {
		return nil, errors.New("listing ID cannot be empty for cart item")
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return nil, errors.New("unit price cannot be negative")
	}
	return &CartItem{
		ID:        uuid.NewString(),
		ListingID: listingID,
		Title:     title,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		ImageURL:  imageURL,
	}, nil
}

func (i *CartItem) TotalPrice() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(userID string) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     make([]CartItem, 0),
		UpdatedAt: time.Now().UTC(),
	}
}

// GetItem looks an item up by listing ID. A cart holds at most one item
// per listing.
func (c *Cart) GetItem(listingID string) (*CartItem, int) {
	for i, item := range c.Items {
		if item.ListingID == listingID {
			return &c.Items[i], i
		}
	}
	return nil, -1
}

// AddItem merges quantities when the listing is already in the cart
// instead of appending a duplicate line.
func (c *Cart) AddItem(item CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	existing, _ := c.GetItem(item.ListingID)
	if existing != nil {
		existing.Quantity += item.Quantity
	} else {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		c.Items = append(c.Items, item)
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (c *Cart) UpdateItemQuantity(listingID string, newQuantity int) error {
	if newQuantity < 1 {
		return ErrInvalidQuantity
	}
	item, _ := c.GetItem(listingID)
	if item == nil {
		return ErrItemNotFound
	}
	item.Quantity = newQuantity
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (c *Cart) RemoveItem(listingID string) error {
	_, index := c.GetItem(listingID)
	if index == -1 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (c *Cart) Clear() {
	c.Items = make([]CartItem, 0)
	c.UpdatedAt = time.Now().UTC()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total sums the snapshot prices, not current listing prices.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.TotalPrice()
	}
	return total
}

func (c *Cart) ListingIDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ListingID
	}
	return ids
}

// Copy returns a deep copy so callers can read a snapshot without holding
// the owning store's lock.
func (c *Cart) Copy() *Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return &Cart{
		UserID:    c.UserID,
		Items:     items,
		UpdatedAt: c.UpdatedAt,
	}
}
