package service

import (
	"context"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
)

func (s *Service) CreateProductionOrder(ctx context.Context, req domain.ProductionOrderCreateRequest) (domain.ProductionOrder, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	var out domain.ProductionOrder
	err = s.mutate(ctx, actor.TenantID, "create_production_order", func(b *ledger.Book) error {
		out, err = b.CreateProductionOrder(ledger.ProductionOrderInput{
			RecipeID:          req.RecipeID,
			QuantityToProduce: req.QuantityToProduce,
			LostQuantity:      req.LostQuantity,
			CreatedBy:         actor.Username,
		})
		return err
	})
	return out, err
}

func (s *Service) CompleteProductionOrder(ctx context.Context, orderID string) (domain.ProductionOrder, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	var out domain.ProductionOrder
	err = s.mutate(ctx, actor.TenantID, "complete_production_order", func(b *ledger.Book) error {
		out, err = b.CompleteProductionOrder(orderID)
		return err
	})
	return out, err
}

func (s *Service) CancelProductionOrder(ctx context.Context, orderID string) (domain.ProductionOrder, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	var out domain.ProductionOrder
	err = s.mutate(ctx, actor.TenantID, "cancel_production_order", func(b *ledger.Book) error {
		out, err = b.CancelProductionOrder(orderID)
		return err
	})
	return out, err
}

func (s *Service) ListProductionOrders(ctx context.Context, status domain.OrderStatus) ([]domain.ProductionOrder, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.ProductionOrder
	err = s.view(ctx, actor.TenantID, "list_production_orders", func(b *ledger.Book) error {
		out = b.ProductionOrders(status)
		return nil
	})
	return out, err
}
