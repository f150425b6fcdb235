package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
)

// OpenShift opens a drawer for the caller. Admins may open one on behalf of
// another seller by naming SellerID.
func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.DailyCashEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.DailyCashEntry{}, err
	}
	sellerID := actor.UserID
	sellerName := actor.Username
	if id := strings.TrimSpace(req.SellerID); id != "" && id != actor.UserID {
		if actor.Role != domain.RoleAdmin {
			return domain.DailyCashEntry{}, ErrForbidden
		}
		sellerID = id
		sellerName = ""
	}
	if name := strings.TrimSpace(req.SellerName); name != "" {
		sellerName = name
	}

	var out domain.DailyCashEntry
	err = s.mutate(ctx, actor.TenantID, "open_shift", func(b *ledger.Book) error {
		out, err = b.OpenShift(ledger.OpenShiftInput{
			SellerID:         sellerID,
			SellerName:       sellerName,
			Date:             req.Date,
			Segment:          req.Segment,
			InitialCashCents: req.InitialCashCents,
			OpenedBy:         actor.Username,
		})
		return err
	})
	if err == nil {
		s.log.Info(s.log.WithField(s.log.WithTenantID(ctx, actor.TenantID), "shift_id", out.ID), "shift opened")
	}
	return out, err
}

func (s *Service) ActiveShift(ctx context.Context) (domain.DailyCashEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.DailyCashEntry{}, err
	}
	var out domain.DailyCashEntry
	err = s.view(ctx, actor.TenantID, "active_shift", func(b *ledger.Book) error {
		out, err = b.ActiveShift(actor.UserID)
		return err
	})
	return out, err
}

func (s *Service) EditInitialCash(ctx context.Context, shiftID string, req domain.InitialCashEditRequest) (domain.DailyCashEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.DailyCashEntry{}, err
	}
	var out domain.DailyCashEntry
	err = s.mutate(ctx, actor.TenantID, "edit_initial_cash", func(b *ledger.Book) error {
		shift, err := b.Shift(shiftID)
		if err != nil {
			return err
		}
		if err := canActOnShift(actor, shift); err != nil {
			return err
		}
		out, err = b.EditInitialCash(shiftID, req.InitialCashCents)
		return err
	})
	return out, err
}

// ShiftSummary returns the drawer breakdown for a shift, served from the
// summary cache when possible.
func (s *Service) ShiftSummary(ctx context.Context, shiftID string) (domain.ShiftSummary, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.ShiftSummary{}, err
	}
	if cached, ok, err := s.summaries.Get(ctx, actor.TenantID, shiftID); err == nil && ok {
		if err := canActOnShift(actor, cached.Shift); err != nil {
			return domain.ShiftSummary{}, err
		}
		return *cached, nil
	} else if err != nil {
		s.log.Warn(s.log.WithTenantID(ctx, actor.TenantID), "summary cache read failed: "+err.Error())
	}

	var out domain.ShiftSummary
	err = s.view(ctx, actor.TenantID, "shift_summary", func(b *ledger.Book) error {
		summary, err := b.ShiftSummary(shiftID)
		if err != nil {
			return err
		}
		if err := canActOnShift(actor, summary.Shift); err != nil {
			return err
		}
		out = summary
		// Written under the tenant lock, the same lock writers invalidate under.
		if err := s.summaries.Set(ctx, actor.TenantID, shiftID, &summary, s.summaryTTL); err != nil {
			s.log.Warn(s.log.WithTenantID(ctx, actor.TenantID), "summary cache write failed: "+err.Error())
		}
		return nil
	})
	return out, err
}

func (s *Service) Reconcile(ctx context.Context, shiftID string, req domain.ReconcileRequest) (domain.DailyCashEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.DailyCashEntry{}, err
	}
	var out domain.DailyCashEntry
	err = s.mutate(ctx, actor.TenantID, "reconcile", func(b *ledger.Book) error {
		shift, err := b.Shift(shiftID)
		if err != nil {
			return err
		}
		if err := canActOnShift(actor, shift); err != nil {
			return err
		}
		out, err = b.Reconcile(ledger.ReconcileInput{
			ShiftID:                shiftID,
			ActualCashCountedCents: req.ActualCashCountedCents,
			ConfirmZeroSales:       req.ConfirmZeroSales,
			ReconciledBy:           actor.Username,
		})
		return err
	})
	if err == nil && out.Reconciliation != nil {
		s.log.Event(s.log.WithTenantID(ctx, actor.TenantID), zerolog.InfoLevel).
			Str("shift_id", out.ID).
			Int64("expected_cents", out.Reconciliation.ExpectedCashCents).
			Int64("difference_cents", out.Reconciliation.DifferenceCents).
			Msg("shift reconciled")
	}
	return out, err
}

func (s *Service) ListShifts(ctx context.Context, filter domain.LedgerFilter) ([]domain.DailyCashEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.DailyCashEntry
	err = s.view(ctx, actor.TenantID, "list_shifts", func(b *ledger.Book) error {
		out = b.Shifts(sellerFilter(actor, filter))
		return nil
	})
	return out, err
}

// Dashboard reports tenant-wide open drawers plus the caller's own sales for
// date and, when they have an open shift, its current drawer cash.
func (s *Service) Dashboard(ctx context.Context, date string) (domain.Dashboard, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	if strings.TrimSpace(date) == "" {
		date = s.now().Format(ledger.DateLayout)
	}
	out := domain.Dashboard{Date: date}
	err = s.view(ctx, actor.TenantID, "dashboard", func(b *ledger.Book) error {
		out.OpenShiftsCount = b.OpenShiftsCount()
		out.TodaysSalesCents = b.TodaysSalesTotal(actor.UserID, date)
		shift, err := b.ActiveShift(actor.UserID)
		if err != nil {
			return nil
		}
		drawer, err := b.CurrentDrawerCash(shift.ID)
		if err != nil {
			return err
		}
		out.ActiveShiftID = shift.ID
		out.CurrentDrawerCents = &drawer
		return nil
	})
	return out, err
}
