package entity

import "time"

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusRemoved   ListingStatus = "removed"
	ListingStatusExpired   ListingStatus = "expired"
)

// Purchasable reports whether a listing can still be added to a cart or
// bought. Availability is the single gate; every other status means the
// food is gone.
func (s ListingStatus) Purchasable() bool {
	return s == ListingStatusAvailable
}

func (s ListingStatus) String() string {
	return string(s)
}

type Listing struct {
	ID          string        `bson:"_id" json:"id"`
	SellerID    string        `bson:"seller_id" json:"seller_id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64       `bson:"price" json:"price"`
	ImageURL    string        `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Status      ListingStatus `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}
