package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftledger/backend/internal/domain"
)

func TestCartRequiresOpenShift(t *testing.T) {
	b := newTestBook(t)

	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(1)})
	require.ErrorIs(t, err, ErrNoActiveShift)

	_, err = b.ClearCart("S1", "4321")
	require.ErrorIs(t, err, ErrNoActiveShift)
}

func TestAddToCartMergesSameProduct(t *testing.T) {
	b := newTestBook(t)
	openShift(t, b, "S1", 0)

	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a"})
	require.NoError(t, err)
	cart, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(2)})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.True(t, cart.Lines[0].Quantity.Equal(qty(3)))
	assert.Equal(t, int64(3000), cart.TotalCents())
}

func TestClearCartItemWithWrongPinChangesNothing(t *testing.T) {
	b := newTestBook(t)
	openShift(t, b, "S1", 0)
	cart, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(2)})
	require.NoError(t, err)

	_, err = b.ClearCartItem("S1", cart.Lines[0].LineID, "0000")
	require.ErrorIs(t, err, ErrWrongPin)

	after, err := b.Cart("S1")
	require.NoError(t, err)
	assert.Len(t, after.Lines, 1)
	assert.Empty(t, b.ClearedSales(domain.LedgerFilter{}))
	assert.NotContains(t, b.Dirty(), domain.CollectionClearedSales)
}

func TestClearCartItemLogsSnapshot(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 0)
	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(2)})
	require.NoError(t, err)
	cart, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-b", Quantity: qty(1)})
	require.NoError(t, err)

	entry, err := b.ClearCartItem("S1", cart.Lines[0].LineID, "4321")
	require.NoError(t, err)
	assert.Equal(t, domain.ClearScopeItem, entry.Scope)
	assert.Equal(t, int64(2000), entry.TotalClearedCents)
	assert.Equal(t, shift.ID, entry.ShiftID)
	require.Len(t, entry.Items, 1)
	assert.Equal(t, "prod-a", entry.Items[0].ProductID)

	after, err := b.Cart("S1")
	require.NoError(t, err)
	require.Len(t, after.Lines, 1)
	assert.Equal(t, "prod-b", after.Lines[0].ProductID)
	assert.True(t, stockOf(t, b, "prod-a").Equal(qty(50)))
}

func TestClearWholeCart(t *testing.T) {
	b := newTestBook(t)
	openShift(t, b, "S1", 0)
	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(1)})
	require.NoError(t, err)
	_, err = b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-b", Quantity: qty(4)})
	require.NoError(t, err)

	entry, err := b.ClearCart("S1", "4321")
	require.NoError(t, err)
	assert.Equal(t, domain.ClearScopeCart, entry.Scope)
	assert.Len(t, entry.Items, 2)
	assert.Equal(t, int64(3000), entry.TotalClearedCents)

	cart, err := b.Cart("S1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	_, err = b.ClearCart("S1", "4321")
	require.ErrorIs(t, err, ErrValidation)
}

func TestClearWithoutConfiguredPinIsRejected(t *testing.T) {
	b := NewBook("t", WithSecretComparer(plainComparer{}))
	mustProduct(t, b, "prod-a", "A", 1000, 5)
	openShift(t, b, "S1", 0)
	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(1)})
	require.NoError(t, err)

	_, err = b.ClearCart("S1", "")
	require.ErrorIs(t, err, ErrWrongPin)
}

func TestCheckoutCartRecordsSaleAndEmptiesCart(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 1000)
	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(2)})
	require.NoError(t, err)

	sale, change, err := b.CheckoutCart("S1", "Seller S1", 2500, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), change)
	assert.Equal(t, shift.ID, sale.ShiftID)
	assert.Equal(t, "cust-1", sale.CustomerID)

	cart, err := b.Cart("S1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestCheckoutCartKeepsCartOnFailure(t *testing.T) {
	b := newTestBook(t)
	openShift(t, b, "S1", 0)
	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-x", Quantity: qty(4)})
	require.NoError(t, err)

	_, _, err = b.CheckoutCart("S1", "", 10000, "")
	require.ErrorIs(t, err, ErrInsufficientStock)

	cart, err := b.Cart("S1")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestReconcileDropsUnpaidCart(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 0)
	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(1)})
	require.NoError(t, err)

	_, err = b.Reconcile(ReconcileInput{ShiftID: shift.ID, ConfirmZeroSales: true})
	require.NoError(t, err)

	_, err = b.Cart("S1")
	require.ErrorIs(t, err, ErrNoActiveShift)
}
