package service

import (
	"context"
	"fmt"
	"time"

	"github.com/karwehn/lapidary/internal/audit"
	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/repository"
	"github.com/karwehn/lapidary/internal/telemetry"
	"github.com/rs/zerolog"
)

// LedgerService is the sole writer of invoice payment state. Every payment
// mutation runs in one transaction covering the payment row, the invoice
// totals and the fan-out to the linked sales, so no reader ever observes a
// half-applied payment.
type LedgerService struct {
	store   repository.Store
	auditor domain.Auditor
	logger  zerolog.Logger
}

var _ domain.LedgerService = (*LedgerService)(nil)

func NewLedgerService(store repository.Store, auditor domain.Auditor, logger zerolog.Logger) *LedgerService {
	return &LedgerService{
		store:   store,
		auditor: auditor,
		logger:  logger.With().Str("service", "ledger").Logger(),
	}
}

// ApplyPayment records a payment against an invoice and recomputes the
// derived status. Target PAID settles whatever balance remains; the supplied
// amount is ignored when it is below the remaining balance, so marking an
// invoice paid always closes it exactly. Target PARTIAL records the supplied
// amount as-is and is force-upgraded to PAID when the running total reaches
// the settlement tolerance, with the stored total capped at the invoice
// total.
func (s *LedgerService) ApplyPayment(ctx context.Context, params domain.ApplyPaymentParams) (*domain.Invoice, error) {
	if params.Target != domain.PaymentStatusPaid && params.Target != domain.PaymentStatusPartial {
		return nil, domain.Errorf(domain.EINVALID, "ledger.apply", "Target status must be PAID or PARTIAL, got %q", params.Target)
	}

	var (
		invoice   *domain.Invoice
		oldStatus domain.PaymentStatus
		recorded  float64
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvoice(ctx, params.InvoiceID)
		if err != nil {
			return err
		}
		oldStatus = inv.PaymentStatus

		amount := params.Amount
		if params.Target == domain.PaymentStatusPaid {
			if remaining := inv.RemainingBalance(); amount < remaining {
				amount = remaining
			}
		}
		if amount <= 0 {
			if params.Target == domain.PaymentStatusPaid {
				return domain.ErrInvoiceFullyPaid
			}
			return domain.ErrNonPositiveAmount
		}

		date := params.Date
		if date.IsZero() {
			date = time.Now().UTC()
		}
		payment := &domain.Payment{
			InvoiceID: inv.ID,
			Amount:    amount,
			Method:    params.Method,
			Date:      date,
			Reference: params.Reference,
			Notes:     params.Notes,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}

		newPaid := inv.PaidAmount + amount
		newStatus := domain.DerivePaymentStatus(newPaid, inv.TotalAmount)
		if newStatus == domain.PaymentStatusPaid && newPaid > inv.TotalAmount {
			// Overpayment never inflates the running total past the
			// invoice total.
			newPaid = inv.TotalAmount
		}
		lifecycle := inv.Status
		if newStatus == domain.PaymentStatusPaid {
			lifecycle = domain.InvoiceStatusPaid
		}
		if err := tx.UpdateInvoicePaymentState(ctx, inv.ID, newPaid, newStatus, lifecycle); err != nil {
			return err
		}
		if err := propagateToSales(ctx, tx, inv.ID, newStatus); err != nil {
			return err
		}

		inv.PaidAmount = newPaid
		inv.PaymentStatus = newStatus
		inv.Status = lifecycle
		invoice = inv
		recorded = amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent("invoice", invoice.ID, "payment_recorded").
		WithStatusChange(string(oldStatus), string(invoice.PaymentStatus)).
		WithMeta("amount", fmt.Sprintf("%.2f", recorded)).
		WithMeta("method", params.Method))

	if telemetry.Business != nil {
		telemetry.Business.PaymentsRecorded.WithLabelValues(params.Method, string(invoice.PaymentStatus)).Inc()
		telemetry.Business.PaymentAmount.WithLabelValues(params.Method).Observe(recorded)
	}

	s.logger.Info().
		Int64("invoice_id", invoice.ID).
		Float64("amount", recorded).
		Str("method", params.Method).
		Str("payment_status", string(invoice.PaymentStatus)).
		Msg("payment recorded")

	return invoice, nil
}

// ResetToUnpaid wipes the invoice's ledger. All payment rows are deleted, the
// invoice returns to UNPAID/ISSUED and every linked sale follows. There is no
// undo; callers confirm before reaching this point.
func (s *LedgerService) ResetToUnpaid(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	var (
		invoice   *domain.Invoice
		oldStatus domain.PaymentStatus
		removed   int64
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		oldStatus = inv.PaymentStatus

		n, err := tx.DeletePaymentsByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateInvoicePaymentState(ctx, inv.ID, 0, domain.PaymentStatusUnpaid, domain.InvoiceStatusIssued); err != nil {
			return err
		}
		if err := propagateToSales(ctx, tx, inv.ID, domain.PaymentStatusUnpaid); err != nil {
			return err
		}

		inv.PaidAmount = 0
		inv.PaymentStatus = domain.PaymentStatusUnpaid
		inv.Status = domain.InvoiceStatusIssued
		invoice = inv
		removed = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent("invoice", invoice.ID, "payment_reset").
		WithStatusChange(string(oldStatus), string(domain.PaymentStatusUnpaid)).
		WithMeta("payments_deleted", fmt.Sprintf("%d", removed)))

	if telemetry.Business != nil {
		telemetry.Business.PaymentsReset.Inc()
	}

	s.logger.Warn().
		Int64("invoice_id", invoice.ID).
		Int64("payments_deleted", removed).
		Msg("invoice ledger reset to unpaid")

	return invoice, nil
}

// propagateToSales pushes the invoice's payment status to every linked sale.
// Sales already at the target status are left untouched, which keeps webhook
// replays from generating spurious writes.
func propagateToSales(ctx context.Context, tx repository.Store, invoiceID int64, status domain.PaymentStatus) error {
	sales, err := tx.ListSalesByInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	for _, sale := range sales {
		if sale.PaymentStatus == status {
			continue
		}
		if err := tx.UpdateSalePaymentStatus(ctx, sale.ID, status); err != nil {
			return err
		}
	}
	return nil
}
