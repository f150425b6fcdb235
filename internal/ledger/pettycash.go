package ledger

import (
	"strings"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/xid"
)

type PettyCashInput struct {
	ShiftID     string
	SellerID    string
	Description string
	AmountCents int64
}

// RecordPettyCash takes cash out of an open drawer. The amount may not exceed
// the cash the drawer currently holds.
func (b *Book) RecordPettyCash(in PettyCashInput) (domain.PettyCashEntry, error) {
	shift, err := b.openShiftFor(in.ShiftID, in.SellerID)
	if err != nil {
		return domain.PettyCashEntry{}, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return domain.PettyCashEntry{}, invalid("description is required")
	}
	if in.AmountCents <= 0 {
		return domain.PettyCashEntry{}, invalid("amount must be greater than zero")
	}
	drawer := b.drawerCash(shift)
	if in.AmountCents > drawer {
		return domain.PettyCashEntry{}, &Error{
			Kind:    KindExceedsDrawerCash,
			Message: ErrExceedsDrawerCash.Message,
			Detail:  map[string]any{"amount_cents": in.AmountCents, "drawer_cash_cents": drawer},
		}
	}

	entry := domain.PettyCashEntry{
		ID:          xid.New("petty"),
		SellerID:    shift.SellerID,
		ShiftLink:   domain.LinkOf(shift),
		Description: description,
		AmountCents: in.AmountCents,
		CreatedAt:   b.now(),
	}
	b.pettyCash = append(b.pettyCash, entry)
	b.touch(domain.CollectionPettyCash)
	return entry, nil
}

func (b *Book) PettyCash(filter domain.LedgerFilter) []domain.PettyCashEntry {
	out := make([]domain.PettyCashEntry, 0)
	for _, p := range b.pettyCash {
		if !matchLink(filter, p.SellerID, p.ShiftLink) {
			continue
		}
		out = append(out, p)
	}
	return limitTail(out, filter.Limit)
}
