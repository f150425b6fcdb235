package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/xid"
)

type SaleInput struct {
	ShiftID             string
	SellerID            string
	SellerName          string
	Lines               []domain.SaleLineRequest
	AmountReceivedCents int64
	CustomerID          string
}

// RecordSale validates the whole sale against the seller's open drawer and
// current stock, then consumes stock, numbers the invoice and appends the
// record. On any error nothing is changed.
func (b *Book) RecordSale(in SaleInput) (domain.SaleRecord, int64, error) {
	shift, err := b.openShiftFor(in.ShiftID, in.SellerID)
	if err != nil {
		return domain.SaleRecord{}, 0, err
	}
	if len(in.Lines) == 0 {
		return domain.SaleRecord{}, 0, invalid("sale must contain at least one line")
	}
	if in.AmountReceivedCents < 0 {
		return domain.SaleRecord{}, 0, invalid("amount received cannot be negative")
	}

	items := make([]domain.SaleItem, 0, len(in.Lines))
	stock := make([]StockLine, 0, len(in.Lines))
	sum := decimal.Zero
	for _, line := range in.Lines {
		item, need, err := b.priceLine(line)
		if err != nil {
			return domain.SaleRecord{}, 0, err
		}
		items = append(items, item)
		stock = append(stock, need...)
		sum = sum.Add(decimal.NewFromInt(item.LineTotalCents))
	}
	total, err := toCents(sum)
	if err != nil {
		return domain.SaleRecord{}, 0, err
	}

	if in.AmountReceivedCents < total {
		return domain.SaleRecord{}, 0, &Error{
			Kind:    KindInsufficientPayment,
			Message: ErrInsufficientPayment.Message,
			Detail:  map[string]any{"grand_total_cents": total, "amount_received_cents": in.AmountReceivedCents},
		}
	}
	if err := b.ConsumeStock(stock); err != nil {
		return domain.SaleRecord{}, 0, err
	}

	now := b.now()
	fy := b.FiscalYear(now)
	number := b.nextInvoiceNumber(fy)
	change := in.AmountReceivedCents - total
	sale := domain.SaleRecord{
		ID:                  xid.New("sale"),
		InvoiceNumber:       number,
		InvoiceCode:         fmt.Sprintf("INV-%d-%06d", fy, number),
		FiscalYear:          fy,
		SellerID:            shift.SellerID,
		SellerName:          firstNonEmpty(in.SellerName, shift.SellerName),
		ShiftLink:           domain.LinkOf(shift),
		Items:               items,
		SubtotalCents:       total,
		GrandTotalCents:     total,
		AmountReceivedCents: in.AmountReceivedCents,
		ChangeGivenCents:    change,
		CustomerID:          strings.TrimSpace(in.CustomerID),
		CreatedAt:           now,
	}
	b.sales = append(b.sales, sale)
	b.touch(domain.CollectionSales)
	return sale, change, nil
}

// priceLine snapshots one sale line and returns the stock it needs.
func (b *Book) priceLine(line domain.SaleLineRequest) (domain.SaleItem, []StockLine, error) {
	productID := strings.TrimSpace(line.ProductID)
	dealID := strings.TrimSpace(line.DealID)
	if (productID == "") == (dealID == "") {
		return domain.SaleItem{}, nil, invalid("each line needs exactly one of product_id or deal_id")
	}
	if !line.Quantity.IsPositive() {
		return domain.SaleItem{}, nil, invalid("line quantity must be positive")
	}

	if productID != "" {
		p, err := b.Product(productID)
		if err != nil {
			return domain.SaleItem{}, nil, err
		}
		if !p.Active {
			return domain.SaleItem{}, nil, invalid("product %q is inactive", p.Code)
		}
		lineTotal, err := toCents(decimal.NewFromInt(p.UnitPriceCents).Mul(line.Quantity))
		if err != nil {
			return domain.SaleItem{}, nil, err
		}
		item := domain.SaleItem{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPriceCents: p.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: lineTotal,
		}
		return item, []StockLine{{ProductID: p.ID, Quantity: line.Quantity}}, nil
	}

	deal, err := b.Deal(dealID)
	if err != nil {
		return domain.SaleItem{}, nil, err
	}
	if !deal.Active {
		return domain.SaleItem{}, nil, invalid("deal %q is inactive", deal.Name)
	}
	components := make([]domain.SaleDealComponent, 0, len(deal.Components))
	for _, c := range deal.Components {
		p, err := b.Product(c.ProductID)
		if err != nil {
			return domain.SaleItem{}, nil, err
		}
		components = append(components, domain.SaleDealComponent{ProductID: p.ID, Name: p.Name, Quantity: c.Quantity})
	}
	lineTotal, err := toCents(decimal.NewFromInt(deal.PriceCents).Mul(line.Quantity))
	if err != nil {
		return domain.SaleItem{}, nil, err
	}
	item := domain.SaleItem{
		DealID:         deal.ID,
		IsDeal:         true,
		Name:           deal.Name,
		UnitPriceCents: deal.PriceCents,
		Quantity:       line.Quantity,
		LineTotalCents: lineTotal,
		DealComponents: components,
	}
	return item, ResolveDeal(deal, line.Quantity), nil
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

// toCents rounds an amount to whole cents, half away from zero. Amounts that
// do not fit in int64 are a validation error.
func toCents(amount decimal.Decimal) (int64, error) {
	rounded := amount.Round(0)
	if rounded.Abs().GreaterThan(maxCents) {
		return 0, invalid("amount %s is too large", rounded.String())
	}
	return rounded.IntPart(), nil
}

func (b *Book) nextInvoiceNumber(fiscalYear int) int64 {
	for i := range b.invoiceCounters {
		if b.invoiceCounters[i].FiscalYear == fiscalYear {
			b.invoiceCounters[i].LastNumber++
			b.touch(domain.CollectionInvoiceCounters)
			return b.invoiceCounters[i].LastNumber
		}
	}
	b.invoiceCounters = append(b.invoiceCounters, domain.InvoiceCounter{FiscalYear: fiscalYear, LastNumber: 1})
	b.touch(domain.CollectionInvoiceCounters)
	return 1
}

func (b *Book) Sale(id string) (domain.SaleRecord, error) {
	for _, s := range b.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.SaleRecord{}, notFound("sale", id)
}

func (b *Book) Sales(filter domain.LedgerFilter) []domain.SaleRecord {
	out := make([]domain.SaleRecord, 0)
	for _, s := range b.sales {
		if !matchLink(filter, s.SellerID, s.ShiftLink) {
			continue
		}
		out = append(out, s)
	}
	return limitTail(out, filter.Limit)
}

func (b *Book) dealReferenced(dealID string) bool {
	for _, s := range b.sales {
		for _, item := range s.Items {
			if item.IsDeal && item.DealID == dealID {
				return true
			}
		}
	}
	return false
}

func matchLink(filter domain.LedgerFilter, sellerID string, link domain.ShiftLink) bool {
	if filter.SellerID != "" && sellerID != filter.SellerID {
		return false
	}
	if filter.ShiftID != "" && link.ShiftID != filter.ShiftID {
		return false
	}
	if filter.Date != "" && link.DailyCashEntryDate != filter.Date {
		return false
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var one = decimal.NewFromInt(1)
