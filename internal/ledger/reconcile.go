package ledger

import (
	"shiftledger/backend/internal/domain"
)

type ReconcileInput struct {
	ShiftID                string
	ActualCashCountedCents int64
	ConfirmZeroSales       bool
	ReconciledBy           string
}

// Reconcile closes a drawer against a physical cash count. It succeeds at most
// once per shift.
func (b *Book) Reconcile(in ReconcileInput) (domain.DailyCashEntry, error) {
	i := b.shiftIndex(in.ShiftID)
	if i < 0 {
		return domain.DailyCashEntry{}, ErrShiftNotFound
	}
	shift := b.shifts[i]
	if shift.IsReconciled() {
		return domain.DailyCashEntry{}, ErrAlreadyReconciled
	}
	if in.ActualCashCountedCents < 0 {
		return domain.DailyCashEntry{}, ErrNegativeCashCounted
	}

	salesTotal, _ := b.salesTotal(shift.ID)
	if salesTotal == 0 && !in.ConfirmZeroSales {
		return domain.DailyCashEntry{}, ErrZeroSalesConfirmationRequired
	}
	expected := b.drawerCash(shift)

	b.shifts[i].State = domain.ShiftStateReconciled
	b.shifts[i].Reconciliation = &domain.ReconciliationInfo{
		ReconciledBy:           in.ReconciledBy,
		ExpectedCashCents:      expected,
		ActualCashCountedCents: in.ActualCashCountedCents,
		DifferenceCents:        in.ActualCashCountedCents - expected,
		ReconciledAt:           b.now(),
	}
	b.touch(domain.CollectionDailyCash)

	// An unpaid cart cannot outlive its drawer.
	for seller, cart := range b.carts {
		if cart.ShiftID == shift.ID {
			delete(b.carts, seller)
		}
	}
	return b.shifts[i], nil
}
