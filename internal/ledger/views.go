package ledger

import (
	"shiftledger/backend/internal/domain"
)

func (b *Book) salesTotal(shiftID string) (int64, int) {
	var total int64
	n := 0
	for _, s := range b.sales {
		if s.ShiftID == shiftID {
			total += s.GrandTotalCents
			n++
		}
	}
	return total, n
}

func (b *Book) pettyTotal(shiftID string) (int64, int) {
	var total int64
	n := 0
	for _, p := range b.pettyCash {
		if p.ShiftID == shiftID {
			total += p.AmountCents
			n++
		}
	}
	return total, n
}

// drawerCash is initial cash plus sales minus petty cash, always recomputed
// from the ledgers.
func (b *Book) drawerCash(shift domain.DailyCashEntry) int64 {
	sales, _ := b.salesTotal(shift.ID)
	petty, _ := b.pettyTotal(shift.ID)
	return shift.InitialCashCents + sales - petty
}

func (b *Book) CurrentDrawerCash(shiftID string) (int64, error) {
	shift, err := b.Shift(shiftID)
	if err != nil {
		return 0, err
	}
	return b.drawerCash(shift), nil
}

func (b *Book) ShiftSummary(shiftID string) (domain.ShiftSummary, error) {
	shift, err := b.Shift(shiftID)
	if err != nil {
		return domain.ShiftSummary{}, err
	}
	sales, salesCount := b.salesTotal(shift.ID)
	petty, pettyCount := b.pettyTotal(shift.ID)
	return domain.ShiftSummary{
		Shift:             shift,
		SalesCount:        salesCount,
		SalesTotalCents:   sales,
		PettyCashCount:    pettyCount,
		PettyCashCents:    petty,
		ExpectedCashCents: shift.InitialCashCents + sales - petty,
	}, nil
}

// TodaysSalesTotal sums grand totals recorded against drawers dated date. An
// empty sellerID covers every seller.
func (b *Book) TodaysSalesTotal(sellerID, date string) int64 {
	var total int64
	for _, s := range b.sales {
		if s.DailyCashEntryDate != date {
			continue
		}
		if sellerID != "" && s.SellerID != sellerID {
			continue
		}
		total += s.GrandTotalCents
	}
	return total
}
