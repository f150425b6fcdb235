package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftledger/backend/internal/domain"
)

func newBakery(t *testing.T) (*Book, domain.Recipe) {
	t.Helper()
	b := newTestBook(t)
	mustProduct(t, b, "prod-flour", "FLOUR", 0, 10)
	mustProduct(t, b, "prod-yeast", "YEAST", 0, 1)
	recipe, err := b.UpsertRecipe("rcp-bread", domain.RecipeUpsertRequest{
		Name:           "Bread",
		FinalProductID: "prod-bread",
		Ingredients: []domain.RecipeIngredient{
			{ProductID: "prod-flour", Quantity: qty(2), Unit: "kg"},
			{ProductID: "prod-yeast", Quantity: dec("0.1"), Unit: "kg"},
		},
	})
	require.NoError(t, err)
	b.ClearDirty()
	return b, recipe
}

func TestCompleteProductionOrderAppliesLoss(t *testing.T) {
	b, recipe := newBakery(t)
	order, err := b.CreateProductionOrder(ProductionOrderInput{RecipeID: recipe.ID, QuantityToProduce: qty(5), LostQuantity: qty(1)})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	done, err := b.CompleteProductionOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, done.Status)
	assert.True(t, done.YieldQuantity.Equal(qty(4)))
	require.NotNil(t, done.CompletedAt)

	assert.True(t, stockOf(t, b, "prod-flour").Equal(qty(0)))
	assert.True(t, stockOf(t, b, "prod-yeast").Equal(dec("0.5")))
	assert.True(t, stockOf(t, b, "prod-bread").Equal(qty(4)))
	assert.ElementsMatch(t, []string{domain.CollectionProducts, domain.CollectionProductionOrders}, b.Dirty())
}

func TestCompleteProductionOrderShortOfIngredients(t *testing.T) {
	b, recipe := newBakery(t)
	order, err := b.CreateProductionOrder(ProductionOrderInput{RecipeID: recipe.ID, QuantityToProduce: qty(6)})
	require.NoError(t, err)

	_, err = b.CompleteProductionOrder(order.ID)
	require.ErrorIs(t, err, ErrInsufficientStock)

	still, err := b.ProductionOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, still.Status)
	assert.True(t, stockOf(t, b, "prod-flour").Equal(qty(10)))
	assert.True(t, stockOf(t, b, "prod-yeast").Equal(qty(1)))
	assert.True(t, stockOf(t, b, "prod-bread").Equal(qty(0)))
}

func TestProductionOrderTransitions(t *testing.T) {
	b, recipe := newBakery(t)
	order, err := b.CreateProductionOrder(ProductionOrderInput{RecipeID: recipe.ID, QuantityToProduce: qty(1)})
	require.NoError(t, err)

	cancelled, err := b.CancelProductionOrder(order.ID)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = b.CompleteProductionOrder(order.ID)
	require.ErrorIs(t, err, ErrInvalidOrderState)
	_, err = b.CancelProductionOrder(order.ID)
	require.ErrorIs(t, err, ErrInvalidOrderState)
	assert.True(t, stockOf(t, b, "prod-flour").Equal(qty(10)))

	_, err = b.CompleteProductionOrder("missing")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, b.ProductionOrders(domain.OrderStatusCancelled), 1)
	assert.Empty(t, b.ProductionOrders(domain.OrderStatusPending))
}

func TestCreateProductionOrderValidatesQuantities(t *testing.T) {
	b, recipe := newBakery(t)

	_, err := b.CreateProductionOrder(ProductionOrderInput{RecipeID: recipe.ID, QuantityToProduce: qty(0)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = b.CreateProductionOrder(ProductionOrderInput{RecipeID: recipe.ID, QuantityToProduce: qty(2), LostQuantity: qty(3)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = b.CreateProductionOrder(ProductionOrderInput{RecipeID: recipe.ID, QuantityToProduce: qty(2), LostQuantity: qty(-1)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = b.CreateProductionOrder(ProductionOrderInput{RecipeID: "nope", QuantityToProduce: qty(1)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecipeCannotConsumeItsOwnProduct(t *testing.T) {
	b, _ := newBakery(t)
	_, err := b.UpsertRecipe("", domain.RecipeUpsertRequest{
		Name:           "Loop",
		FinalProductID: "prod-bread",
		Ingredients:    []domain.RecipeIngredient{{ProductID: "prod-bread", Quantity: qty(1)}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, domain.CanTransition(domain.OrderStatusPending, domain.OrderStatusCompleted))
	assert.True(t, domain.CanTransition(domain.OrderStatusPending, domain.OrderStatusCancelled))
	assert.False(t, domain.CanTransition(domain.OrderStatusCompleted, domain.OrderStatusCancelled))
	assert.False(t, domain.CanTransition(domain.OrderStatusCancelled, domain.OrderStatusPending))
	assert.False(t, domain.CanTransition("bogus", domain.OrderStatusCompleted))
}

func TestCloneIsolatesMutations(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 1000)
	_, err := b.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(1)})
	require.NoError(t, err)
	b.ClearDirty()

	c := b.Clone()
	_, _, err = c.RecordSale(SaleInput{
		ShiftID:             shift.ID,
		SellerID:            "S1",
		Lines:               []domain.SaleLineRequest{{ProductID: "prod-a", Quantity: qty(5)}},
		AmountReceivedCents: 5000,
	})
	require.NoError(t, err)
	_, err = c.AddToCart("S1", domain.CartAddRequest{ProductID: "prod-a", Quantity: qty(1)})
	require.NoError(t, err)

	assert.True(t, stockOf(t, b, "prod-a").Equal(qty(50)))
	assert.True(t, stockOf(t, c, "prod-a").Equal(qty(45)))
	assert.Empty(t, b.Sales(domain.LedgerFilter{}))
	assert.Len(t, c.Sales(domain.LedgerFilter{}), 1)
	assert.Empty(t, b.Dirty())

	cart, err := b.Cart("S1")
	require.NoError(t, err)
	assert.True(t, cart.Lines[0].Quantity.Equal(qty(1)))
}

func TestEncodeDecodeRoundTripsCollections(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 1000)
	_, _, err := b.RecordSale(SaleInput{
		ShiftID:             shift.ID,
		SellerID:            "S1",
		Lines:               []domain.SaleLineRequest{{ProductID: "prod-a", Quantity: qty(1)}},
		AmountReceivedCents: 1000,
	})
	require.NoError(t, err)

	restored := NewBook("tenant-a")
	for _, key := range domain.Collections {
		data, err := b.Encode(key)
		require.NoError(t, err)
		require.NoError(t, restored.Decode(key, data))
	}

	drawer, err := restored.CurrentDrawerCash(shift.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), drawer)
	assert.True(t, stockOf(t, restored, "prod-a").Equal(qty(49)))
	assert.Equal(t, "hash:4321", restored.Settings().ClearSalePINHash)
	assert.Empty(t, restored.Dirty())
}
