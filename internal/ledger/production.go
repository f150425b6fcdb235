package ledger

import (
	"github.com/shopspring/decimal"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/xid"
)

type ProductionOrderInput struct {
	RecipeID          string
	QuantityToProduce decimal.Decimal
	LostQuantity      decimal.Decimal
	CreatedBy         string
}

func (b *Book) CreateProductionOrder(in ProductionOrderInput) (domain.ProductionOrder, error) {
	recipe, err := b.Recipe(in.RecipeID)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	if !in.QuantityToProduce.IsPositive() {
		return domain.ProductionOrder{}, invalid("quantity to produce must be positive")
	}
	if in.LostQuantity.IsNegative() || in.LostQuantity.GreaterThan(in.QuantityToProduce) {
		return domain.ProductionOrder{}, invalid("lost quantity must be between 0 and the quantity to produce")
	}

	order := domain.ProductionOrder{
		ID:                xid.New("prod"),
		RecipeID:          recipe.ID,
		QuantityToProduce: in.QuantityToProduce,
		LostQuantity:      in.LostQuantity,
		YieldQuantity:     decimal.Zero,
		Status:            domain.OrderStatusPending,
		CreatedBy:         in.CreatedBy,
		CreatedAt:         b.now(),
	}
	b.productionOrders = append(b.productionOrders, order)
	b.touch(domain.CollectionProductionOrders)
	return order, nil
}

func (b *Book) orderIndex(id string) int {
	for i := range b.productionOrders {
		if b.productionOrders[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) ProductionOrder(id string) (domain.ProductionOrder, error) {
	i := b.orderIndex(id)
	if i < 0 {
		return domain.ProductionOrder{}, notFound("production order", id)
	}
	return b.productionOrders[i], nil
}

// CompleteProductionOrder consumes the recipe's ingredients for a pending order
// and credits the finished product with the quantity produced net of loss.
func (b *Book) CompleteProductionOrder(orderID string) (domain.ProductionOrder, error) {
	i := b.orderIndex(orderID)
	if i < 0 {
		return domain.ProductionOrder{}, notFound("production order", orderID)
	}
	order := b.productionOrders[i]
	if !domain.CanTransition(order.Status, domain.OrderStatusCompleted) {
		return domain.ProductionOrder{}, ErrInvalidOrderState
	}
	recipe, err := b.Recipe(order.RecipeID)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	if b.productIndex(recipe.FinalProductID) < 0 {
		return domain.ProductionOrder{}, notFound("product", recipe.FinalProductID)
	}

	if err := b.ConsumeStock(ResolveRecipe(recipe, order.QuantityToProduce)); err != nil {
		return domain.ProductionOrder{}, err
	}
	yield := order.QuantityToProduce.Sub(order.LostQuantity)
	if yield.IsPositive() {
		if _, err := b.Increment(recipe.FinalProductID, yield); err != nil {
			return domain.ProductionOrder{}, err
		}
	}

	now := b.now()
	order.Status = domain.OrderStatusCompleted
	order.YieldQuantity = yield
	order.CompletedAt = &now
	b.productionOrders[i] = order
	b.touch(domain.CollectionProductionOrders)
	return order, nil
}

// CancelProductionOrder never touches stock.
func (b *Book) CancelProductionOrder(orderID string) (domain.ProductionOrder, error) {
	i := b.orderIndex(orderID)
	if i < 0 {
		return domain.ProductionOrder{}, notFound("production order", orderID)
	}
	order := b.productionOrders[i]
	if !domain.CanTransition(order.Status, domain.OrderStatusCancelled) {
		return domain.ProductionOrder{}, ErrInvalidOrderState
	}
	now := b.now()
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now
	b.productionOrders[i] = order
	b.touch(domain.CollectionProductionOrders)
	return order, nil
}

func (b *Book) ProductionOrders(status domain.OrderStatus) []domain.ProductionOrder {
	out := make([]domain.ProductionOrder, 0)
	for _, o := range b.productionOrders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	return out
}
