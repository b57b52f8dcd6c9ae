package handler

import (
	"context"

	"github.com/karwehn/lapidary/internal/domain"
)

// Function-field mocks for the domain interfaces.

type mockInvoiceService struct {
	CreateInvoiceFn        func(ctx context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error)
	UpdateDisplayOptionsFn func(ctx context.Context, saleID int64, opts domain.DisplayOptions) (*domain.Invoice, error)
	GetInvoiceFn           func(ctx context.Context, invoiceID int64) (*domain.InvoiceDetail, error)
	GetByTokenFn           func(ctx context.Context, token string) (*domain.PublicInvoiceView, error)
}

func (m *mockInvoiceService) CreateInvoice(ctx context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error) {
	return m.CreateInvoiceFn(ctx, params)
}

func (m *mockInvoiceService) UpdateDisplayOptions(ctx context.Context, saleID int64, opts domain.DisplayOptions) (*domain.Invoice, error) {
	return m.UpdateDisplayOptionsFn(ctx, saleID, opts)
}

func (m *mockInvoiceService) GetInvoice(ctx context.Context, invoiceID int64) (*domain.InvoiceDetail, error) {
	return m.GetInvoiceFn(ctx, invoiceID)
}

func (m *mockInvoiceService) GetByToken(ctx context.Context, token string) (*domain.PublicInvoiceView, error) {
	return m.GetByTokenFn(ctx, token)
}

type mockLedgerService struct {
	ApplyPaymentFn  func(ctx context.Context, params domain.ApplyPaymentParams) (*domain.Invoice, error)
	ResetToUnpaidFn func(ctx context.Context, invoiceID int64) (*domain.Invoice, error)
}

func (m *mockLedgerService) ApplyPayment(ctx context.Context, params domain.ApplyPaymentParams) (*domain.Invoice, error) {
	return m.ApplyPaymentFn(ctx, params)
}

func (m *mockLedgerService) ResetToUnpaid(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	return m.ResetToUnpaidFn(ctx, invoiceID)
}

type mockApprovalService struct {
	EvaluateSendFn func(ctx context.Context, quotationID int64) (*domain.SendDecision, error)
}

func (m *mockApprovalService) EvaluateSend(ctx context.Context, quotationID int64) (*domain.SendDecision, error) {
	return m.EvaluateSendFn(ctx, quotationID)
}

type mockReconciler struct {
	ProcessFn func(ctx context.Context, ev domain.PaymentEvent) (*domain.ReconcileOutcome, error)
	calls     []domain.PaymentEvent
}

func (m *mockReconciler) Process(ctx context.Context, ev domain.PaymentEvent) (*domain.ReconcileOutcome, error) {
	m.calls = append(m.calls, ev)
	return m.ProcessFn(ctx, ev)
}
