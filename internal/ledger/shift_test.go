package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftledger/backend/internal/domain"
)

func TestOpenShiftRejectsSecondOpenDrawer(t *testing.T) {
	b := newTestBook(t)
	openShift(t, b, "S1", 1000)

	_, err := b.OpenShift(OpenShiftInput{SellerID: "S1", Date: "2024-01-10", Segment: domain.SegmentMorning})
	require.ErrorIs(t, err, ErrShiftAlreadyOpen)

	_, err = b.OpenShift(OpenShiftInput{SellerID: "S1", Date: "2024-01-10", Segment: domain.SegmentAfternoon})
	require.ErrorIs(t, err, ErrShiftAlreadyOpen)

	_, err = b.OpenShift(OpenShiftInput{SellerID: "S2", Date: "2024-01-10", Segment: domain.SegmentMorning})
	require.NoError(t, err)
	assert.Equal(t, 2, b.OpenShiftsCount())
}

func TestOpenShiftValidatesInput(t *testing.T) {
	b := newTestBook(t)

	cases := []OpenShiftInput{
		{SellerID: "", Date: "2024-01-10", Segment: domain.SegmentMorning},
		{SellerID: "S1", Date: "10/01/2024", Segment: domain.SegmentMorning},
		{SellerID: "S1", Date: "2024-01-10", Segment: "night"},
		{SellerID: "S1", Date: "2024-01-10", Segment: domain.SegmentMorning, InitialCashCents: -1},
	}
	for _, in := range cases {
		_, err := b.OpenShift(in)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Equal(t, 0, b.OpenShiftsCount())
}

func TestShiftCanReopenAfterReconciliation(t *testing.T) {
	b := newTestBook(t)
	first := openShift(t, b, "S1", 0)
	_, err := b.Reconcile(ReconcileInput{ShiftID: first.ID, ActualCashCountedCents: 0, ConfirmZeroSales: true})
	require.NoError(t, err)

	second := openShift(t, b, "S1", 500)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := b.ActiveShift("S1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestEditInitialCashOnlyWhileOpen(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 1000)

	edited, err := b.EditInitialCash(shift.ID, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), edited.InitialCashCents)

	_, err = b.EditInitialCash(shift.ID, -5)
	require.ErrorIs(t, err, ErrValidation)

	_, err = b.Reconcile(ReconcileInput{ShiftID: shift.ID, ActualCashCountedCents: 2500, ConfirmZeroSales: true})
	require.NoError(t, err)
	_, err = b.EditInitialCash(shift.ID, 100)
	require.ErrorIs(t, err, ErrAlreadyReconciled)

	_, err = b.EditInitialCash("missing", 100)
	require.ErrorIs(t, err, ErrShiftNotFound)
}

func TestReconcileFailureModes(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 1000)

	_, err := b.Reconcile(ReconcileInput{ShiftID: "missing"})
	require.ErrorIs(t, err, ErrShiftNotFound)

	_, err = b.Reconcile(ReconcileInput{ShiftID: shift.ID, ActualCashCountedCents: -1, ConfirmZeroSales: true})
	require.ErrorIs(t, err, ErrNegativeCashCounted)

	_, err = b.Reconcile(ReconcileInput{ShiftID: shift.ID, ActualCashCountedCents: 1000})
	require.ErrorIs(t, err, ErrZeroSalesConfirmationRequired)

	still, err := b.Shift(shift.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStateOpen, still.State)
	assert.Nil(t, still.Reconciliation)
}

func TestReconcileRecordsSignedDifference(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 5000)
	_, _, err := b.RecordSale(SaleInput{
		ShiftID:             shift.ID,
		SellerID:            "S1",
		Lines:               []domain.SaleLineRequest{{ProductID: "prod-b", Quantity: qty(3)}},
		AmountReceivedCents: 2000,
	})
	require.NoError(t, err)

	closed, err := b.Reconcile(ReconcileInput{ShiftID: shift.ID, ActualCashCountedCents: 6400, ReconciledBy: "mgr"})
	require.NoError(t, err)
	assert.Equal(t, int64(6500), closed.Reconciliation.ExpectedCashCents)
	assert.Equal(t, int64(-100), closed.Reconciliation.DifferenceCents)
	assert.Equal(t, "mgr", closed.Reconciliation.ReconciledBy)
}

func TestCashIdentityAcrossManyEntries(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 10000)

	var sales, petty int64
	for i := 1; i <= 5; i++ {
		sale, _, err := b.RecordSale(SaleInput{
			ShiftID:             shift.ID,
			SellerID:            "S1",
			Lines:               []domain.SaleLineRequest{{ProductID: "prod-b", Quantity: qty(int64(i))}},
			AmountReceivedCents: 100000,
		})
		require.NoError(t, err)
		sales += sale.GrandTotalCents
	}
	for _, amount := range []int64{125, 990, 3000} {
		_, err := b.RecordPettyCash(PettyCashInput{ShiftID: shift.ID, SellerID: "S1", Description: "supplies", AmountCents: amount})
		require.NoError(t, err)
		petty += amount
	}

	summary, err := b.ShiftSummary(shift.ID)
	require.NoError(t, err)
	assert.Equal(t, 10000+sales-petty, summary.ExpectedCashCents)
	assert.Equal(t, 5, summary.SalesCount)
	assert.Equal(t, 3, summary.PettyCashCount)
	assert.Equal(t, sales, b.TodaysSalesTotal("S1", "2024-01-10"))
	assert.Equal(t, int64(0), b.TodaysSalesTotal("S2", "2024-01-10"))
}

func TestSalesAgainstAnotherSellersShiftAreRejected(t *testing.T) {
	b := newTestBook(t)
	shift := openShift(t, b, "S1", 0)

	_, _, err := b.RecordSale(SaleInput{
		ShiftID:             shift.ID,
		SellerID:            "S2",
		Lines:               []domain.SaleLineRequest{{ProductID: "prod-a", Quantity: qty(1)}},
		AmountReceivedCents: 1000,
	})
	require.ErrorIs(t, err, ErrShiftNotActive)

	_, err = b.RecordPettyCash(PettyCashInput{ShiftID: shift.ID, SellerID: "S2", Description: "x", AmountCents: 1})
	require.ErrorIs(t, err, ErrShiftNotActive)
}

func TestDailyCashEntryJSONExposesReconciledFlag(t *testing.T) {
	b := newTestBook(t)
	openShift(t, b, "S1", 0)

	data, err := b.Encode(domain.CollectionDailyCash)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"is_reconciled":false`)
	assert.Contains(t, string(data), `"state":"open"`)
}
