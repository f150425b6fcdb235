package service

import (
	"context"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
)

// RecordSale records a sale against the caller's open shift.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	var out domain.SaleResponse
	err = s.mutate(ctx, actor.TenantID, "record_sale", func(b *ledger.Book) error {
		shift, err := b.ActiveShift(actor.UserID)
		if err != nil {
			return err
		}
		sale, change, err := b.RecordSale(ledger.SaleInput{
			ShiftID:             shift.ID,
			SellerID:            actor.UserID,
			SellerName:          shift.SellerName,
			Lines:               req.Lines,
			AmountReceivedCents: req.AmountReceivedCents,
			CustomerID:          req.CustomerID,
		})
		if err != nil {
			return err
		}
		out = domain.SaleResponse{Sale: sale, ChangeGivenCents: change}
		return nil
	})
	return out, err
}

func (s *Service) ListSales(ctx context.Context, filter domain.LedgerFilter) ([]domain.SaleRecord, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SaleRecord
	err = s.view(ctx, actor.TenantID, "list_sales", func(b *ledger.Book) error {
		out = b.Sales(sellerFilter(actor, filter))
		return nil
	})
	return out, err
}

func (s *Service) RecordPettyCash(ctx context.Context, req domain.PettyCashRequest) (domain.PettyCashEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.PettyCashEntry{}, err
	}
	var out domain.PettyCashEntry
	err = s.mutate(ctx, actor.TenantID, "record_petty_cash", func(b *ledger.Book) error {
		shift, err := b.ActiveShift(actor.UserID)
		if err != nil {
			return err
		}
		out, err = b.RecordPettyCash(ledger.PettyCashInput{
			ShiftID:     shift.ID,
			SellerID:    actor.UserID,
			Description: req.Description,
			AmountCents: req.AmountCents,
		})
		return err
	})
	return out, err
}

func (s *Service) ListPettyCash(ctx context.Context, filter domain.LedgerFilter) ([]domain.PettyCashEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.PettyCashEntry
	err = s.view(ctx, actor.TenantID, "list_petty_cash", func(b *ledger.Book) error {
		out = b.PettyCash(sellerFilter(actor, filter))
		return nil
	})
	return out, err
}

// Cart returns the caller's unpaid cart. Carts live in memory only, so the
// call goes through mutate to publish a freshly created cart.
func (s *Service) Cart(ctx context.Context) (domain.Cart, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	var out domain.Cart
	err = s.mutate(ctx, actor.TenantID, "get_cart", func(b *ledger.Book) error {
		out, err = b.Cart(actor.UserID)
		return err
	})
	return out, err
}

func (s *Service) AddToCart(ctx context.Context, req domain.CartAddRequest) (domain.Cart, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	var out domain.Cart
	err = s.mutate(ctx, actor.TenantID, "add_to_cart", func(b *ledger.Book) error {
		out, err = b.AddToCart(actor.UserID, req)
		return err
	})
	return out, err
}

func (s *Service) UpdateCartLine(ctx context.Context, lineID string, req domain.CartLineUpdateRequest) (domain.Cart, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	var out domain.Cart
	err = s.mutate(ctx, actor.TenantID, "update_cart_line", func(b *ledger.Book) error {
		out, err = b.UpdateCartLine(actor.UserID, lineID, req.Quantity)
		return err
	})
	return out, err
}

func (s *Service) ClearCartItem(ctx context.Context, lineID string, req domain.CartClearRequest) (domain.ClearedSaleLogEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.ClearedSaleLogEntry{}, err
	}
	var out domain.ClearedSaleLogEntry
	err = s.mutate(ctx, actor.TenantID, "clear_cart_item", func(b *ledger.Book) error {
		out, err = b.ClearCartItem(actor.UserID, lineID, req.PIN)
		return err
	})
	return out, err
}

func (s *Service) ClearCart(ctx context.Context, req domain.CartClearRequest) (domain.ClearedSaleLogEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.ClearedSaleLogEntry{}, err
	}
	var out domain.ClearedSaleLogEntry
	err = s.mutate(ctx, actor.TenantID, "clear_cart", func(b *ledger.Book) error {
		out, err = b.ClearCart(actor.UserID, req.PIN)
		return err
	})
	return out, err
}

func (s *Service) CheckoutCart(ctx context.Context, req domain.CheckoutCartRequest) (domain.SaleResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	var out domain.SaleResponse
	err = s.mutate(ctx, actor.TenantID, "checkout_cart", func(b *ledger.Book) error {
		shift, err := b.ActiveShift(actor.UserID)
		if err != nil {
			return err
		}
		sale, change, err := b.CheckoutCart(actor.UserID, shift.SellerName, req.AmountReceivedCents, req.CustomerID)
		if err != nil {
			return err
		}
		out = domain.SaleResponse{Sale: sale, ChangeGivenCents: change}
		return nil
	})
	return out, err
}

func (s *Service) ListClearedSales(ctx context.Context, filter domain.LedgerFilter) ([]domain.ClearedSaleLogEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.ClearedSaleLogEntry
	err = s.view(ctx, actor.TenantID, "list_cleared_sales", func(b *ledger.Book) error {
		out = b.ClearedSales(sellerFilter(actor, filter))
		return nil
	})
	return out, err
}
