package ledger

import (
	"strings"
	"time"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/xid"
)

const DateLayout = "2006-01-02"

type OpenShiftInput struct {
	SellerID         string
	SellerName       string
	Date             string
	Segment          domain.Segment
	InitialCashCents int64
	OpenedBy         string
}

func (b *Book) shiftIndex(id string) int {
	for i := range b.shifts {
		if b.shifts[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) Shift(id string) (domain.DailyCashEntry, error) {
	i := b.shiftIndex(id)
	if i < 0 {
		return domain.DailyCashEntry{}, ErrShiftNotFound
	}
	return b.shifts[i], nil
}

// ActiveShift returns the seller's single open drawer.
func (b *Book) ActiveShift(sellerID string) (domain.DailyCashEntry, error) {
	for _, s := range b.shifts {
		if s.SellerID == sellerID && s.State == domain.ShiftStateOpen {
			return s, nil
		}
	}
	return domain.DailyCashEntry{}, ErrNoActiveShift
}

// OpenShift creates an open drawer. A seller may hold at most one open drawer
// at a time, which also rules out a second open entry for the same date and
// segment.
func (b *Book) OpenShift(in OpenShiftInput) (domain.DailyCashEntry, error) {
	in.SellerID = strings.TrimSpace(in.SellerID)
	in.Date = strings.TrimSpace(in.Date)
	if in.SellerID == "" {
		return domain.DailyCashEntry{}, invalid("seller id is required")
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return domain.DailyCashEntry{}, invalid("date must be formatted as YYYY-MM-DD")
	}
	if !in.Segment.Valid() {
		return domain.DailyCashEntry{}, invalid("shift must be morning or afternoon")
	}
	if in.InitialCashCents < 0 {
		return domain.DailyCashEntry{}, invalid("initial cash cannot be negative")
	}
	if active, err := b.ActiveShift(in.SellerID); err == nil {
		return domain.DailyCashEntry{}, &Error{
			Kind:    KindShiftAlreadyOpen,
			Message: ErrShiftAlreadyOpen.Message,
			Detail:  map[string]any{"shift_id": active.ID, "date": active.Date, "segment": active.Segment},
		}
	}

	entry := domain.DailyCashEntry{
		ID:               xid.New("shift"),
		SellerID:         in.SellerID,
		SellerName:       strings.TrimSpace(in.SellerName),
		Date:             in.Date,
		Segment:          in.Segment,
		InitialCashCents: in.InitialCashCents,
		OpenedBy:         in.OpenedBy,
		OpenedAt:         b.now(),
		State:            domain.ShiftStateOpen,
	}
	b.shifts = append(b.shifts, entry)
	b.touch(domain.CollectionDailyCash)
	return entry, nil
}

func (b *Book) EditInitialCash(shiftID string, amountCents int64) (domain.DailyCashEntry, error) {
	i := b.shiftIndex(shiftID)
	if i < 0 {
		return domain.DailyCashEntry{}, ErrShiftNotFound
	}
	if b.shifts[i].IsReconciled() {
		return domain.DailyCashEntry{}, ErrAlreadyReconciled
	}
	if amountCents < 0 {
		return domain.DailyCashEntry{}, invalid("initial cash cannot be negative")
	}
	b.shifts[i].InitialCashCents = amountCents
	b.touch(domain.CollectionDailyCash)
	return b.shifts[i], nil
}

// openShiftFor resolves the drawer a seller is recording against.
func (b *Book) openShiftFor(shiftID, sellerID string) (domain.DailyCashEntry, error) {
	i := b.shiftIndex(shiftID)
	if i < 0 {
		return domain.DailyCashEntry{}, ErrShiftNotActive
	}
	s := b.shifts[i]
	if s.State != domain.ShiftStateOpen || (sellerID != "" && s.SellerID != sellerID) {
		return domain.DailyCashEntry{}, ErrShiftNotActive
	}
	return s, nil
}

func (b *Book) Shifts(filter domain.LedgerFilter) []domain.DailyCashEntry {
	out := make([]domain.DailyCashEntry, 0)
	for _, s := range b.shifts {
		if filter.SellerID != "" && s.SellerID != filter.SellerID {
			continue
		}
		if filter.Date != "" && s.Date != filter.Date {
			continue
		}
		out = append(out, s)
	}
	return limitTail(out, filter.Limit)
}

func (b *Book) OpenShiftsCount() int {
	n := 0
	for _, s := range b.shifts {
		if s.State == domain.ShiftStateOpen {
			n++
		}
	}
	return n
}

// limitTail keeps the newest n rows of an append-ordered slice.
func limitTail[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[len(rows)-n:]
	}
	return rows
}
