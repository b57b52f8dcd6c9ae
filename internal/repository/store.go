// Package repository provides the persistence boundary for the
// reconciliation core. Services receive a Store explicitly instead of
// reaching for a shared database handle; InTx hands back a Store bound to a
// single transaction so the atomicity boundary is a visible parameter.
package repository

import (
	"context"

	"github.com/karwehn/lapidary/internal/domain"
)

// Store is the persistence contract consumed by the services. The pgx
// implementation lives in this package; tests substitute an in-memory fake.
type Store interface {
	// InTx runs fn against a Store bound to one database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Nested calls reuse the ambient transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	// Sales
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	GetSalesByIDs(ctx context.Context, ids []int64) ([]domain.Sale, error)
	ListSalesByInvoice(ctx context.Context, invoiceID int64) ([]domain.Sale, error)
	LinkSaleToInvoice(ctx context.Context, saleID, invoiceID int64) error
	UpdateSalePaymentStatus(ctx context.Context, saleID int64, status domain.PaymentStatus) error

	// Invoices
	CreateInvoice(ctx context.Context, inv *domain.Invoice) error
	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)
	GetInvoiceByToken(ctx context.Context, token string) (*domain.Invoice, error)
	UpdateInvoiceDisplayOptions(ctx context.Context, id int64, opts domain.DisplayOptions) error
	UpdateInvoicePaymentState(ctx context.Context, id int64, paid float64, payment domain.PaymentStatus, lifecycle domain.InvoiceStatus) error
	NextInvoiceSequence(ctx context.Context, year int) (int64, error)

	// Payments
	CreatePayment(ctx context.Context, p *domain.Payment) error
	ListPaymentsByInvoice(ctx context.Context, invoiceID int64) ([]domain.Payment, error)
	DeletePaymentsByInvoice(ctx context.Context, invoiceID int64) (int64, error)

	// Invoice versions (immutable pre-mutation snapshots)
	CreateInvoiceVersion(ctx context.Context, v *domain.InvoiceVersion) error

	// Quotations
	GetQuotation(ctx context.Context, id int64) (*domain.Quotation, error)
	UpdateQuotationStatus(ctx context.Context, id int64, status domain.QuotationStatus) error
	GetInventoryItems(ctx context.Context, ids []int64) (map[int64]domain.InventoryItem, error)

	// Approval rules, ascending priority, active only
	ListActiveApprovalRules(ctx context.Context) ([]domain.ApprovalRule, error)
}
