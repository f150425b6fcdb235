package ledger

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/xid"
)

// cartFor returns the seller's unpaid cart bound to their open drawer. A cart
// left over from an earlier drawer is discarded.
func (b *Book) cartFor(sellerID string) (*domain.Cart, domain.DailyCashEntry, error) {
	shift, err := b.ActiveShift(sellerID)
	if err != nil {
		return nil, domain.DailyCashEntry{}, ErrNoActiveShift
	}
	cart, ok := b.carts[sellerID]
	if !ok || cart.ShiftID != shift.ID {
		cart = &domain.Cart{SellerID: sellerID, ShiftID: shift.ID, Lines: []domain.CartLine{}}
		b.carts[sellerID] = cart
	}
	return cart, shift, nil
}

func (b *Book) Cart(sellerID string) (domain.Cart, error) {
	cart, _, err := b.cartFor(sellerID)
	if err != nil {
		return domain.Cart{}, err
	}
	return copyCart(cart), nil
}

func (b *Book) AddToCart(sellerID string, req domain.CartAddRequest) (domain.Cart, error) {
	cart, _, err := b.cartFor(sellerID)
	if err != nil {
		return domain.Cart{}, err
	}
	qty := req.Quantity
	if qty.IsZero() {
		qty = one
	}
	item, _, err := b.priceLine(domain.SaleLineRequest{ProductID: req.ProductID, DealID: req.DealID, Quantity: qty})
	if err != nil {
		return domain.Cart{}, err
	}

	for i := range cart.Lines {
		line := &cart.Lines[i]
		if line.IsDeal == item.IsDeal && line.ProductID == item.ProductID && line.DealID == item.DealID {
			merged := line.Quantity.Add(qty)
			if _, _, err := b.priceLine(domain.SaleLineRequest{ProductID: line.ProductID, DealID: line.DealID, Quantity: merged}); err != nil {
				return domain.Cart{}, err
			}
			line.Quantity = merged
			return copyCart(cart), nil
		}
	}
	cart.Lines = append(cart.Lines, domain.CartLine{
		LineID:         xid.New("line"),
		ProductID:      item.ProductID,
		DealID:         item.DealID,
		IsDeal:         item.IsDeal,
		Name:           item.Name,
		UnitPriceCents: item.UnitPriceCents,
		Quantity:       qty,
	})
	return copyCart(cart), nil
}

// UpdateCartLine changes a line's quantity. Removing a line goes through
// ClearCartItem so that it is audited.
func (b *Book) UpdateCartLine(sellerID, lineID string, qty decimal.Decimal) (domain.Cart, error) {
	cart, _, err := b.cartFor(sellerID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !qty.IsPositive() {
		return domain.Cart{}, invalid("quantity must be positive")
	}
	i := cartLineIndex(cart, lineID)
	if i < 0 {
		return domain.Cart{}, notFound("cart line", lineID)
	}
	line := cart.Lines[i]
	if _, _, err := b.priceLine(domain.SaleLineRequest{ProductID: line.ProductID, DealID: line.DealID, Quantity: qty}); err != nil {
		return domain.Cart{}, err
	}
	cart.Lines[i].Quantity = qty
	return copyCart(cart), nil
}

// ClearCartItem removes one unpaid line after a PIN check and logs it.
func (b *Book) ClearCartItem(sellerID, lineID, pin string) (domain.ClearedSaleLogEntry, error) {
	cart, shift, err := b.cartFor(sellerID)
	if err != nil {
		return domain.ClearedSaleLogEntry{}, err
	}
	if err := b.verifyClearPIN(pin); err != nil {
		return domain.ClearedSaleLogEntry{}, err
	}
	i := cartLineIndex(cart, lineID)
	if i < 0 {
		return domain.ClearedSaleLogEntry{}, notFound("cart line", lineID)
	}
	removed := cart.Lines[i : i+1 : i+1]
	entry := b.logCleared(shift, domain.ClearScopeItem, slices.Clone(removed))
	cart.Lines = slices.Delete(cart.Lines, i, i+1)
	return entry, nil
}

// ClearCart empties the seller's unpaid cart after a PIN check and logs it.
func (b *Book) ClearCart(sellerID, pin string) (domain.ClearedSaleLogEntry, error) {
	cart, shift, err := b.cartFor(sellerID)
	if err != nil {
		return domain.ClearedSaleLogEntry{}, err
	}
	if err := b.verifyClearPIN(pin); err != nil {
		return domain.ClearedSaleLogEntry{}, err
	}
	if len(cart.Lines) == 0 {
		return domain.ClearedSaleLogEntry{}, invalid("cart is empty")
	}
	entry := b.logCleared(shift, domain.ClearScopeCart, slices.Clone(cart.Lines))
	cart.Lines = []domain.CartLine{}
	return entry, nil
}

// CheckoutCart records the seller's cart as a sale and empties it.
func (b *Book) CheckoutCart(sellerID, sellerName string, amountReceivedCents int64, customerID string) (domain.SaleRecord, int64, error) {
	cart, shift, err := b.cartFor(sellerID)
	if err != nil {
		return domain.SaleRecord{}, 0, err
	}
	if len(cart.Lines) == 0 {
		return domain.SaleRecord{}, 0, invalid("cart is empty")
	}
	lines := make([]domain.SaleLineRequest, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, domain.SaleLineRequest{ProductID: line.ProductID, DealID: line.DealID, Quantity: line.Quantity})
	}
	sale, change, err := b.RecordSale(SaleInput{
		ShiftID:             shift.ID,
		SellerID:            sellerID,
		SellerName:          sellerName,
		Lines:               lines,
		AmountReceivedCents: amountReceivedCents,
		CustomerID:          customerID,
	})
	if err != nil {
		return domain.SaleRecord{}, 0, err
	}
	cart.Lines = []domain.CartLine{}
	return sale, change, nil
}

func (b *Book) ClearedSales(filter domain.LedgerFilter) []domain.ClearedSaleLogEntry {
	out := make([]domain.ClearedSaleLogEntry, 0)
	for _, c := range b.clearedSales {
		if !matchLink(filter, c.SellerID, c.ShiftLink) {
			continue
		}
		out = append(out, c)
	}
	return limitTail(out, filter.Limit)
}

func (b *Book) verifyClearPIN(pin string) error {
	pin = strings.TrimSpace(pin)
	hash := b.settings.ClearSalePINHash
	if pin == "" || hash == "" || b.secrets == nil || !b.secrets.CompareSecret(pin, hash) {
		return ErrWrongPin
	}
	return nil
}

func (b *Book) logCleared(shift domain.DailyCashEntry, scope domain.ClearScope, lines []domain.CartLine) domain.ClearedSaleLogEntry {
	var total int64
	for _, line := range lines {
		total += line.TotalCents()
	}
	entry := domain.ClearedSaleLogEntry{
		ID:                xid.New("clr"),
		SellerID:          shift.SellerID,
		ShiftLink:         domain.LinkOf(shift),
		Scope:             scope,
		Items:             lines,
		TotalClearedCents: total,
		ClearedAt:         b.now(),
	}
	b.clearedSales = append(b.clearedSales, entry)
	b.touch(domain.CollectionClearedSales)
	return entry
}

func cartLineIndex(cart *domain.Cart, lineID string) int {
	for i := range cart.Lines {
		if cart.Lines[i].LineID == lineID {
			return i
		}
	}
	return -1
}

func copyCart(cart *domain.Cart) domain.Cart {
	cp := *cart
	cp.Lines = slices.Clone(cart.Lines)
	if cp.Lines == nil {
		cp.Lines = []domain.CartLine{}
	}
	return cp
}
