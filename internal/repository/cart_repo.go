package repository

import "context"

// CartRow is the durable shape of one cart line. Only the listing
// reference and quantity are persisted; title, price and image are
// re-joined against the listings collection on load.
type CartRow struct {
	ListingID string
	Quantity  int
}

// CartRepository stores a user's cart rows. ReplaceForUser is a
// destructive full replace (delete-all, reinsert), so the last writer for
// a user wins across devices; replacing with an empty set clears the
// rows.
type CartRepository interface {
	ReplaceForUser(ctx context.Context, userID string, rows []CartRow) error
	ListForUser(ctx context.Context, userID string) ([]CartRow, error)
}
