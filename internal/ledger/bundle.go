package ledger

import (
	"github.com/shopspring/decimal"

	"shiftledger/backend/internal/domain"
)

// StockLine is a required quantity of one product.
type StockLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ResolveDeal expands a deal sold multiplier times into its component lines.
func ResolveDeal(deal domain.Deal, multiplier decimal.Decimal) []StockLine {
	lines := make([]StockLine, 0, len(deal.Components))
	for _, c := range deal.Components {
		lines = append(lines, StockLine{ProductID: c.ProductID, Quantity: c.Quantity.Mul(multiplier)})
	}
	return lines
}

// ResolveRecipe expands a recipe into the ingredient quantities needed to
// produce quantityToProduce units of its final product.
func ResolveRecipe(recipe domain.Recipe, quantityToProduce decimal.Decimal) []StockLine {
	lines := make([]StockLine, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		lines = append(lines, StockLine{ProductID: ing.ProductID, Quantity: ing.Quantity.Mul(quantityToProduce)})
	}
	return lines
}

// mergeLines sums duplicate products while keeping first-seen order.
func mergeLines(lines []StockLine) []StockLine {
	merged := make([]StockLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity = merged[i].Quantity.Add(line.Quantity)
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}
