package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"shiftledger/backend/internal/domain"
)

func (b *Book) productIndex(id string) int {
	for i := range b.products {
		if b.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) Product(id string) (domain.Product, error) {
	i := b.productIndex(id)
	if i < 0 {
		return domain.Product{}, notFound("product", id)
	}
	return b.products[i], nil
}

func (b *Book) Products() []domain.Product {
	return append([]domain.Product(nil), b.products...)
}

// Decrement removes qty from a product's stock and returns the new level.
func (b *Book) Decrement(productID string, qty decimal.Decimal) (decimal.Decimal, error) {
	if err := b.CheckStock([]StockLine{{ProductID: productID, Quantity: qty}}); err != nil {
		return decimal.Zero, err
	}
	return b.applyDelta(productID, qty.Neg()), nil
}

// Increment adds qty to a product's stock and returns the new level.
func (b *Book) Increment(productID string, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, invalid("quantity must be positive")
	}
	if b.productIndex(productID) < 0 {
		return decimal.Zero, notFound("product", productID)
	}
	return b.applyDelta(productID, qty), nil
}

// CheckStock validates every line without changing anything. Lines for the
// same product are summed before comparison.
func (b *Book) CheckStock(lines []StockLine) error {
	for _, line := range mergeLines(lines) {
		if !line.Quantity.IsPositive() {
			return invalid("quantity for product %q must be positive", line.ProductID)
		}
		i := b.productIndex(line.ProductID)
		if i < 0 {
			return notFound("product", line.ProductID)
		}
		p := b.products[i]
		if p.Stock.LessThan(line.Quantity) {
			return &Error{
				Kind:    KindInsufficientStock,
				Message: fmt.Sprintf("insufficient stock for %s (%s): requested %s, available %s", p.Name, p.Code, line.Quantity, p.Stock),
				Detail: map[string]any{
					"product_id": p.ID,
					"code":       p.Code,
					"requested":  line.Quantity.String(),
					"available":  p.Stock.String(),
				},
			}
		}
	}
	return nil
}

// ConsumeStock decrements every line, or none of them.
func (b *Book) ConsumeStock(lines []StockLine) error {
	if err := b.CheckStock(lines); err != nil {
		return err
	}
	for _, line := range mergeLines(lines) {
		if _, err := b.Decrement(line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// AdjustStock sets a product's stock to an absolute level after a manual count.
func (b *Book) AdjustStock(productID string, level decimal.Decimal) (domain.Product, error) {
	if level.IsNegative() {
		return domain.Product{}, invalid("stock cannot be negative")
	}
	i := b.productIndex(productID)
	if i < 0 {
		return domain.Product{}, notFound("product", productID)
	}
	b.products[i].Stock = level
	b.products[i].UpdatedAt = b.now()
	b.touch(domain.CollectionProducts)
	return b.products[i], nil
}

func (b *Book) applyDelta(productID string, delta decimal.Decimal) decimal.Decimal {
	i := b.productIndex(productID)
	b.products[i].Stock = b.products[i].Stock.Add(delta)
	b.products[i].UpdatedAt = b.now()
	b.touch(domain.CollectionProducts)
	return b.products[i].Stock
}
