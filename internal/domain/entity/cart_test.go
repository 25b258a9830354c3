package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCartItem(t *testing.T, listingID string, price float64, quantity int) CartItem {
	t.Helper()
	item, err := NewCartItem(listingID, "Item "+listingID, price, quantity, "")
	require.NoError(t, err)
	return *item
}

func TestCart_AddItem_MergesSameListing(t *testing.T) {
	cart := NewCart("user1")

	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 2)))
	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 3)))
	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 1)))

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "L1", cart.Items[0].ListingID)
	assert.Equal(t, 6, cart.Items[0].Quantity)
}

func TestCart_AddItem_DistinctListings(t *testing.T) {
	cart := NewCart("user1")

	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 1)))
	require.NoError(t, cart.AddItem(mustCartItem(t, "L2", 100, 2)))

	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 450.0, cart.Total())
}

func TestCart_UpdateItemQuantity_RejectsBelowOne(t *testing.T) {
	cart := NewCart("user1")
	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 2)))

	assert.ErrorIs(t, cart.UpdateItemQuantity("L1", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, cart.UpdateItemQuantity("L1", -3), ErrInvalidQuantity)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	require.NoError(t, cart.UpdateItemQuantity("L1", 5))
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCart_UpdateItemQuantity_UnknownListing(t *testing.T) {
	cart := NewCart("user1")
	assert.ErrorIs(t, cart.UpdateItemQuantity("missing", 2), ErrItemNotFound)
}

func TestCart_RemoveItem(t *testing.T) {
	cart := NewCart("user1")
	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 1)))
	require.NoError(t, cart.AddItem(mustCartItem(t, "L2", 100, 1)))

	require.NoError(t, cart.RemoveItem("L1"))
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "L2", cart.Items[0].ListingID)

	assert.ErrorIs(t, cart.RemoveItem("L1"), ErrItemNotFound)
}

func TestCart_Clear(t *testing.T) {
	cart := NewCart("user1")
	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 1)))

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0.0, cart.Total())
}

func TestCart_Total_UsesSnapshotPrices(t *testing.T) {
	cart := NewCart("user1")
	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 2)))
	require.NoError(t, cart.AddItem(mustCartItem(t, "L2", 99.5, 3)))

	assert.Equal(t, 250.0*2+99.5*3, cart.Total())
}

func TestNewCartItem_Validation(t *testing.T) {
	_, err := NewCartItem("", "t", 10, 1, "")
	assert.Error(t, err)

	_, err = NewCartItem("L1", "t", 10, 0, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewCartItem("L1", "t", -1, 1, "")
	assert.Error(t, err)

	item, err := NewCartItem("L1", "t", 10, 2, "")
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, 20.0, item.TotalPrice())
}

func TestCart_Copy_IsDeep(t *testing.T) {
	cart := NewCart("user1")
	require.NoError(t, cart.AddItem(mustCartItem(t, "L1", 250, 2)))

	snapshot := cart.Copy()
	require.NoError(t, cart.UpdateItemQuantity("L1", 9))

	assert.Equal(t, 2, snapshot.Items[0].Quantity)
}
