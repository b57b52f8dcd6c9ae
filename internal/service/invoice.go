package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/karwehn/lapidary/internal/audit"
	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/repository"
	"github.com/karwehn/lapidary/internal/telemetry"
	"github.com/rs/zerolog"
)

type InvoiceService struct {
	store   repository.Store
	auditor domain.Auditor
	logger  zerolog.Logger
}

var _ domain.InvoiceService = (*InvoiceService)(nil)

func NewInvoiceService(store repository.Store, auditor domain.Auditor, logger zerolog.Logger) *InvoiceService {
	return &InvoiceService{
		store:   store,
		auditor: auditor,
		logger:  logger.With().Str("service", "invoice").Logger(),
	}
}

// CreateInvoice groups the given sales into a single new invoice. Every sale
// must exist and must not already belong to an invoice. The invoice number is
// drawn from a per-year counter inside the same transaction, so concurrent
// creations cannot collide.
func (s *InvoiceService) CreateInvoice(ctx context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error) {
	if len(params.SaleIDs) == 0 {
		return nil, domain.ErrNoSalesToInvoice
	}

	display := params.Display
	if display == nil {
		d := domain.DefaultDisplayOptions()
		display = &d
	}

	token, err := generateToken()
	if err != nil {
		return nil, domain.Internal(err, "invoice.create", "failed to generate public token")
	}

	var (
		invoice *domain.Invoice
		year    int
	)
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		sales, err := tx.GetSalesByIDs(ctx, params.SaleIDs)
		if err != nil {
			return err
		}
		if len(sales) != len(params.SaleIDs) {
			return domain.ErrSaleNotFound
		}

		// Sale net amounts are already net of discount, so subtotal and
		// total are the same figure; discountTotal is informational.
		var discount, total float64
		for _, sale := range sales {
			if sale.Invoiced() {
				return domain.ErrSaleAlreadyInvoiced
			}
			discount += sale.DiscountAmount
			total += sale.NetAmount
		}

		year = time.Now().UTC().Year()
		seq, err := tx.NextInvoiceSequence(ctx, year)
		if err != nil {
			return err
		}

		inv := &domain.Invoice{
			Number:        fmt.Sprintf("INV-%d-%04d", year, seq),
			Token:         token,
			Status:        domain.InvoiceStatusIssued,
			PaymentStatus: domain.PaymentStatusUnpaid,
			Subtotal:      total,
			DiscountTotal: discount,
			TotalAmount:   total,
			PaidAmount:    0,
			Active:        true,
			Display:       *display,
		}
		if err := tx.CreateInvoice(ctx, inv); err != nil {
			return err
		}
		for _, sale := range sales {
			if err := tx.LinkSaleToInvoice(ctx, sale.ID, inv.ID); err != nil {
				return err
			}
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent("invoice", invoice.ID, "created").
		WithMeta("number", invoice.Number).
		WithMeta("total_amount", fmt.Sprintf("%.2f", invoice.TotalAmount)).
		WithMeta("sale_count", strconv.Itoa(len(params.SaleIDs))))

	if telemetry.Business != nil {
		// Same year the number was allocated from, even across midnight.
		telemetry.Business.InvoicesIssued.WithLabelValues(strconv.Itoa(year)).Inc()
	}

	s.logger.Info().
		Int64("invoice_id", invoice.ID).
		Str("number", invoice.Number).
		Float64("total", invoice.TotalAmount).
		Int("sales", len(params.SaleIDs)).
		Msg("invoice created")

	return invoice, nil
}

// UpdateDisplayOptions changes which columns the public view of a sale's
// invoice exposes. The sale must already be invoiced.
func (s *InvoiceService) UpdateDisplayOptions(ctx context.Context, saleID int64, display domain.DisplayOptions) (*domain.Invoice, error) {
	sale, err := s.store.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.Invoiced() {
		return nil, domain.ErrSaleNotInvoiced
	}
	if err := s.store.UpdateInvoiceDisplayOptions(ctx, *sale.InvoiceID, display); err != nil {
		return nil, err
	}
	return s.store.GetInvoice(ctx, *sale.InvoiceID)
}

// GetInvoice returns an invoice together with its payments and the sales it
// covers.
func (s *InvoiceService) GetInvoice(ctx context.Context, id int64) (*domain.InvoiceDetail, error) {
	invoice, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentsByInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	sales, err := s.store.ListSalesByInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.InvoiceDetail{
		Invoice:  *invoice,
		Payments: payments,
		Sales:    sales,
	}, nil
}

// GetByToken resolves the shareable public view of an invoice. A deactivated
// invoice still resolves but is marked disabled so the caller can render a
// neutral placeholder instead of a 404.
func (s *InvoiceService) GetByToken(ctx context.Context, token string) (*domain.PublicInvoiceView, error) {
	invoice, err := s.store.GetInvoiceByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !invoice.Active {
		return &domain.PublicInvoiceView{Disabled: true}, nil
	}
	sales, err := s.store.ListSalesByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	return &domain.PublicInvoiceView{
		Invoice: invoice,
		Sales:   sales,
	}, nil
}
