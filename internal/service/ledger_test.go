package service

import (
	"context"
	"testing"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerFixture wires an invoice with linked sales into a fresh store.
func ledgerFixture(t *testing.T, total, paid float64, status domain.PaymentStatus) (*memStore, *LedgerService, *recordingAuditor, *domain.Invoice) {
	t.Helper()
	store := newMemStore()
	auditor := &recordingAuditor{}
	svc := NewLedgerService(store, auditor, zerolog.Nop())

	lifecycle := domain.InvoiceStatusIssued
	if status == domain.PaymentStatusPaid {
		lifecycle = domain.InvoiceStatusPaid
	}
	inv := store.addInvoice(domain.Invoice{
		Number:        "INV-2026-0001",
		TotalAmount:   total,
		PaidAmount:    paid,
		PaymentStatus: status,
		Status:        lifecycle,
		Active:        true,
	})

	for i := 0; i < 2; i++ {
		sale := store.addSale(total/2, 0)
		sale.InvoiceID = &inv.ID
		sale.PaymentStatus = status
	}
	return store, svc, auditor, inv
}

func TestApplyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("full payment records the remaining balance, not the supplied amount", func(t *testing.T) {
		store, svc, _, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		got, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPaid,
			Amount:    100, // ignored, below the balance
			Method:    "bank_transfer",
		})
		require.NoError(t, err)

		assert.Equal(t, 500.0, got.PaidAmount)
		assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
		assert.Equal(t, domain.InvoiceStatusPaid, got.Status)

		payments, err := store.ListPaymentsByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, 500.0, payments[0].Amount)
	})

	t.Run("full payment settles a partially paid invoice", func(t *testing.T) {
		store, svc, _, inv := ledgerFixture(t, 500, 200, domain.PaymentStatusPartial)

		got, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPaid,
			Method:    "cash",
		})
		require.NoError(t, err)

		assert.Equal(t, 500.0, got.PaidAmount)
		payments, err := store.ListPaymentsByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, 300.0, payments[0].Amount)
	})

	t.Run("partial payment accumulates", func(t *testing.T) {
		_, svc, _, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		got, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPartial,
			Amount:    200,
			Method:    "card",
		})
		require.NoError(t, err)

		assert.Equal(t, 200.0, got.PaidAmount)
		assert.Equal(t, domain.PaymentStatusPartial, got.PaymentStatus)
		assert.Equal(t, domain.InvoiceStatusIssued, got.Status)
	})

	t.Run("partial overflow is capped and force-upgraded to PAID", func(t *testing.T) {
		_, svc, _, inv := ledgerFixture(t, 500, 450, domain.PaymentStatusPartial)

		got, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPartial,
			Amount:    60,
			Method:    "cash",
		})
		require.NoError(t, err)

		assert.Equal(t, 500.0, got.PaidAmount)
		assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
		assert.Equal(t, domain.InvoiceStatusPaid, got.Status)
	})

	t.Run("partial within tolerance upgrades to PAID", func(t *testing.T) {
		_, svc, _, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		got, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPartial,
			Amount:    499.995,
			Method:    "bank_transfer",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
	})

	t.Run("fan-out updates linked sales", func(t *testing.T) {
		store, svc, _, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		_, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPaid,
			Method:    "cash",
		})
		require.NoError(t, err)

		sales, err := store.ListSalesByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, sales, 2)
		for _, sale := range sales {
			assert.Equal(t, domain.PaymentStatusPaid, sale.PaymentStatus)
		}
	})

	t.Run("rejects full payment on a settled invoice", func(t *testing.T) {
		_, svc, _, inv := ledgerFixture(t, 500, 500, domain.PaymentStatusPaid)

		_, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPaid,
			Method:    "cash",
		})
		assert.ErrorIs(t, err, domain.ErrInvoiceFullyPaid)
		assert.Equal(t, domain.EAMOUNT, domain.ErrorCode(err))
	})

	t.Run("rejects non-positive partial amount", func(t *testing.T) {
		_, svc, _, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		_, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPartial,
			Amount:    0,
			Method:    "cash",
		})
		assert.ErrorIs(t, err, domain.ErrNonPositiveAmount)
	})

	t.Run("rejects UNPAID as a target", func(t *testing.T) {
		_, svc, _, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		_, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusUnpaid,
			Amount:    100,
			Method:    "cash",
		})
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("unknown invoice is not found", func(t *testing.T) {
		store := newMemStore()
		svc := NewLedgerService(store, &recordingAuditor{}, zerolog.Nop())

		_, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: 42,
			Target:    domain.PaymentStatusPaid,
			Method:    "cash",
		})
		assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	})

	t.Run("records the status transition in the audit trail", func(t *testing.T) {
		_, svc, auditor, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		_, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID,
			Target:    domain.PaymentStatusPartial,
			Amount:    100,
			Method:    "cash",
		})
		require.NoError(t, err)

		ev := auditor.last()
		require.NotNil(t, ev)
		assert.Equal(t, "payment_recorded", ev.Action)
		assert.Equal(t, "UNPAID", ev.OldStatus)
		assert.Equal(t, "PARTIAL", ev.NewStatus)
	})
}

func TestResetToUnpaid(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes payments and resets invoice and sales", func(t *testing.T) {
		store, svc, auditor, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		_, err := svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID, Target: domain.PaymentStatusPartial, Amount: 200, Method: "cash",
		})
		require.NoError(t, err)
		_, err = svc.ApplyPayment(ctx, domain.ApplyPaymentParams{
			InvoiceID: inv.ID, Target: domain.PaymentStatusPaid, Method: "cash",
		})
		require.NoError(t, err)

		got, err := svc.ResetToUnpaid(ctx, inv.ID)
		require.NoError(t, err)

		assert.Equal(t, 0.0, got.PaidAmount)
		assert.Equal(t, domain.PaymentStatusUnpaid, got.PaymentStatus)
		assert.Equal(t, domain.InvoiceStatusIssued, got.Status)

		payments, err := store.ListPaymentsByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Empty(t, payments)

		sales, err := store.ListSalesByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		for _, sale := range sales {
			assert.Equal(t, domain.PaymentStatusUnpaid, sale.PaymentStatus)
		}

		ev := auditor.last()
		require.NotNil(t, ev)
		assert.Equal(t, "payment_reset", ev.Action)
		assert.Equal(t, "PAID", ev.OldStatus)
		assert.Equal(t, "UNPAID", ev.NewStatus)
		assert.Equal(t, "2", ev.Meta["payments_deleted"])
	})

	t.Run("reset on an unpaid invoice is a no-op that still succeeds", func(t *testing.T) {
		_, svc, _, inv := ledgerFixture(t, 500, 0, domain.PaymentStatusUnpaid)

		got, err := svc.ResetToUnpaid(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusUnpaid, got.PaymentStatus)
	})
}
