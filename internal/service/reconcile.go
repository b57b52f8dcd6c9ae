package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/karwehn/lapidary/internal/audit"
	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/repository"
	"github.com/rs/zerolog"
)

// ReconcileService drives the payment ledger from verified gateway events.
// It owns no ledger arithmetic of its own; captured payments are handed to
// the LedgerService as a full settlement.
type ReconcileService struct {
	store   repository.Store
	ledger  domain.LedgerService
	auditor domain.Auditor
	logger  zerolog.Logger
}

var _ domain.Reconciler = (*ReconcileService)(nil)

func NewReconcileService(store repository.Store, ledger domain.LedgerService, auditor domain.Auditor, logger zerolog.Logger) *ReconcileService {
	return &ReconcileService{
		store:   store,
		ledger:  ledger,
		auditor: auditor,
		logger:  logger.With().Str("service", "reconcile").Logger(),
	}
}

// Process applies one verified gateway event. Captured payments settle the
// referenced invoice; failed payments are recorded in the audit trail only.
// Events the ledger cannot act on (no invoice reference, unknown invoice,
// already settled) are dropped but still acknowledged, since the gateway
// retries anything else.
func (s *ReconcileService) Process(ctx context.Context, ev domain.PaymentEvent) (*domain.ReconcileOutcome, error) {
	switch ev.Kind {
	case domain.EventPaymentCaptured:
		return s.processCaptured(ctx, ev)
	case domain.EventPaymentFailed:
		return s.processFailed(ctx, ev)
	default:
		s.logger.Warn().Str("event", ev.Kind).Msg("unrecognized gateway event dropped")
		return &domain.ReconcileOutcome{Dropped: true, Reason: "unrecognized event kind"}, nil
	}
}

func (s *ReconcileService) processCaptured(ctx context.Context, ev domain.PaymentEvent) (*domain.ReconcileOutcome, error) {
	if ev.InvoiceID == nil {
		s.logger.Warn().
			Str("payment_id", ev.PaymentID).
			Float64("amount", ev.Amount).
			Msg("captured payment carries no invoice reference, dropping")
		return &domain.ReconcileOutcome{Dropped: true, Reason: "no invoice reference"}, nil
	}

	invoice, err := s.store.GetInvoice(ctx, *ev.InvoiceID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			s.logger.Warn().
				Str("payment_id", ev.PaymentID).
				Int64("invoice_id", *ev.InvoiceID).
				Msg("captured payment references unknown invoice, dropping")
			return &domain.ReconcileOutcome{Dropped: true, Reason: "unknown invoice"}, nil
		}
		return nil, err
	}

	// Snapshot the invoice before touching it. The version row commits on
	// its own so the pre-mutation state survives even if the settlement
	// fails afterwards.
	if err := s.snapshot(ctx, invoice, ev.PaymentID); err != nil {
		return nil, err
	}

	if invoice.Settled() {
		// Gateway redelivery of an already-applied capture.
		s.logger.Info().
			Str("payment_id", ev.PaymentID).
			Int64("invoice_id", invoice.ID).
			Msg("invoice already settled, dropping redelivery")
		return &domain.ReconcileOutcome{Dropped: true, Reason: "already settled"}, nil
	}

	if _, err := s.ledger.ApplyPayment(ctx, domain.ApplyPaymentParams{
		InvoiceID: invoice.ID,
		Target:    domain.PaymentStatusPaid,
		Amount:    ev.Amount,
		Method:    "gateway",
		Date:      time.Now().UTC(),
		Reference: ev.PaymentID,
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent("payment", invoice.ID, "payment_captured").
		WithMeta("gateway_payment_id", ev.PaymentID).
		WithMeta("amount", fmt.Sprintf("%.2f", ev.Amount)))

	return &domain.ReconcileOutcome{Applied: true}, nil
}

func (s *ReconcileService) processFailed(ctx context.Context, ev domain.PaymentEvent) (*domain.ReconcileOutcome, error) {
	var invoiceID int64
	if ev.InvoiceID != nil {
		invoiceID = *ev.InvoiceID
	}

	s.auditor.Record(ctx, audit.NewEvent("payment", invoiceID, "payment_failed").
		WithReason(ev.ErrorDescription).
		WithMeta("gateway_payment_id", ev.PaymentID).
		WithMeta("amount", fmt.Sprintf("%.2f", ev.Amount)))

	s.logger.Info().
		Str("payment_id", ev.PaymentID).
		Str("error", ev.ErrorDescription).
		Msg("gateway payment failure recorded")

	return &domain.ReconcileOutcome{Reason: "failure recorded"}, nil
}

func (s *ReconcileService) snapshot(ctx context.Context, invoice *domain.Invoice, paymentID string) error {
	raw, err := json.Marshal(invoice)
	if err != nil {
		return domain.Internal(err, "reconcile.snapshot", "failed to encode invoice snapshot")
	}
	return s.store.CreateInvoiceVersion(ctx, &domain.InvoiceVersion{
		InvoiceID: invoice.ID,
		Reason:    fmt.Sprintf("gateway payment %s", paymentID),
		Snapshot:  raw,
	})
}
