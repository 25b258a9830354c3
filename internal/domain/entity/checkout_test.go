package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutState_Lifecycle(t *testing.T) {
	state := NewCheckoutState()
	assert.Equal(t, CheckoutIdle, state.Status)

	require.NoError(t, state.Begin())
	assert.Equal(t, CheckoutProcessing, state.Status)

	state.Succeed("order1")
	assert.Equal(t, CheckoutSuccess, state.Status)
	assert.Equal(t, "order1", state.OrderID)
	assert.Empty(t, state.Err)
}

func TestCheckoutState_RejectsReentrantBegin(t *testing.T) {
	state := NewCheckoutState()
	require.NoError(t, state.Begin())

	assert.ErrorIs(t, state.Begin(), ErrCheckoutInProgress)
}

func TestCheckoutState_RetryAfterError(t *testing.T) {
	state := NewCheckoutState()
	require.NoError(t, state.Begin())
	state.Fail("some items are no longer available")
	assert.Equal(t, CheckoutError, state.Status)
	assert.NotEmpty(t, state.Err)

	// A fresh attempt clears the stale outcome.
	require.NoError(t, state.Begin())
	assert.Equal(t, CheckoutProcessing, state.Status)
	assert.Empty(t, state.Err)
}

func TestCheckoutState_Reset(t *testing.T) {
	state := NewCheckoutState()
	require.NoError(t, state.Begin())
	state.Succeed("order1")

	state.Reset()
	assert.Equal(t, CheckoutIdle, state.Status)
	assert.Empty(t, state.OrderID)
	assert.Empty(t, state.Err)
}

func TestCheckoutStatus_IsTerminal(t *testing.T) {
	assert.False(t, CheckoutIdle.IsTerminal())
	assert.False(t, CheckoutProcessing.IsTerminal())
	assert.True(t, CheckoutSuccess.IsTerminal())
	assert.True(t, CheckoutError.IsTerminal())
}
