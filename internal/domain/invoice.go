package domain

import (
	"context"
	"time"
)

// SettlementEpsilon is the fixed tolerance under which an invoice counts as
// fully paid. paymentStatus == PAID iff paidAmount >= totalAmount - epsilon.
const SettlementEpsilon = 0.01

// InvoiceStatus is the invoice lifecycle state.
type InvoiceStatus string

const (
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
)

// Invoice-related domain errors.
var (
	ErrSaleNotFound        = &Error{Code: ENOTFOUND, Message: "Sale not found"}
	ErrInvoiceNotFound     = &Error{Code: ENOTFOUND, Message: "Invoice not found"}
	ErrSaleAlreadyInvoiced = &Error{Code: ECONFLICT, Message: "Sale is already covered by an invoice"}
	ErrSaleNotInvoiced     = &Error{Code: ECONFLICT, Message: "Sale has no invoice yet"}
	ErrNoSalesToInvoice    = &Error{Code: EINVALID, Message: "At least one sale is required"}
	ErrInvoiceFullyPaid    = &Error{Code: EAMOUNT, Message: "Invoice is already fully paid"}
	ErrNonPositiveAmount   = &Error{Code: EAMOUNT, Message: "Payment amount must be greater than zero"}
)

// DisplayOptions is the fixed set of toggles controlling what a
// customer-facing invoice render shows. It is encoded to JSON only at the
// storage boundary.
type DisplayOptions struct {
	ShowWeight        bool `json:"showWeight"`
	ShowSku           bool `json:"showSku"`
	ShowPrice         bool `json:"showPrice"`
	ShowOrigin        bool `json:"showOrigin"`
	ShowCertification bool `json:"showCertification"`
}

// DefaultDisplayOptions returns the toggles applied when the operator does
// not choose any.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		ShowWeight: true,
		ShowSku:    true,
		ShowPrice:  true,
	}
}

// Invoice is a billing document covering one or more sales. It carries the
// authoritative payment ledger totals; paidAmount is a denormalized running
// total maintained exclusively by the Payment Ledger.
type Invoice struct {
	ID            int64
	Number        string // INV-<year>-<4-digit sequence>
	Token         string // 32-hex-char token for unauthenticated public viewing
	Subtotal      float64
	DiscountTotal float64
	TotalAmount   float64
	PaidAmount    float64
	PaymentStatus PaymentStatus
	Status        InvoiceStatus
	Active        bool
	Display       DisplayOptions
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RemainingBalance is the amount still owed against the invoice.
func (inv *Invoice) RemainingBalance() float64 {
	return inv.TotalAmount - inv.PaidAmount
}

// Settled reports whether the invoice counts as fully paid under the
// settlement tolerance.
func (inv *Invoice) Settled() bool {
	return inv.PaidAmount >= inv.TotalAmount-SettlementEpsilon
}

// DerivePaymentStatus returns the payment status implied by a paid/total
// pair. Zero paid is UNPAID regardless of total.
func DerivePaymentStatus(paid, total float64) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentStatusUnpaid
	case paid >= total-SettlementEpsilon:
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// Payment is one immutable ledger entry representing money received against
// an invoice. Rows are append-only; the only deletion path is an explicit
// reset of the invoice to UNPAID, which removes all of them.
type Payment struct {
	ID        int64
	InvoiceID int64
	Amount    float64
	Method    string
	Date      time.Time
	Reference string
	Notes     string
	CreatedAt time.Time
}

// InvoiceVersion is an immutable snapshot of invoice state taken before a
// webhook-driven mutation, so every gateway change is auditable even outside
// the activity log.
type InvoiceVersion struct {
	ID        int64
	InvoiceID int64
	Reason    string
	Snapshot  []byte // JSON-encoded Invoice
	CreatedAt time.Time
}

// InvoiceService aggregates sales into invoices and serves invoice views.
type InvoiceService interface {
	// CreateInvoice creates an invoice covering one or more sales,
	// allocating the next sequential number and a public token.
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*Invoice, error)

	// UpdateDisplayOptions replaces the display configuration of the invoice
	// covering the given sale. Financial totals are never recomputed here.
	UpdateDisplayOptions(ctx context.Context, saleID int64, opts DisplayOptions) (*Invoice, error)

	// GetInvoice retrieves an invoice with its payments and linked sales.
	GetInvoice(ctx context.Context, invoiceID int64) (*InvoiceDetail, error)

	// GetByToken resolves the public, unauthenticated view for a token.
	GetByToken(ctx context.Context, token string) (*PublicInvoiceView, error)
}

// CreateInvoiceParams contains parameters for creating an invoice.
type CreateInvoiceParams struct {
	SaleIDs []int64
	// Display is optional; nil applies DefaultDisplayOptions.
	Display *DisplayOptions
}

// InvoiceDetail aggregates an invoice with its ledger and covered sales.
type InvoiceDetail struct {
	Invoice  Invoice
	Payments []Payment
	Sales    []Sale
}

// PublicInvoiceView is the token-addressed customer view. When the invoice
// link has been disabled the view carries Disabled=true and no content.
type PublicInvoiceView struct {
	Disabled bool
	Invoice  *Invoice
	Sales    []Sale
}

// LedgerService applies payments to invoices and derives the resulting
// status. It is the sole writer of paidAmount and paymentStatus; every other
// component routes status changes through it.
type LedgerService interface {
	// ApplyPayment records a payment and recomputes invoice and sale status
	// atomically. Target PAID settles the exact remaining balance regardless
	// of the supplied amount; target PARTIAL records the supplied amount and
	// is force-upgraded to PAID when the running total crosses the
	// settlement tolerance.
	ApplyPayment(ctx context.Context, params ApplyPaymentParams) (*Invoice, error)

	// ResetToUnpaid deletes every payment row and returns the invoice and
	// all linked sales to UNPAID. Destructive and one-way.
	ResetToUnpaid(ctx context.Context, invoiceID int64) (*Invoice, error)
}

// ApplyPaymentParams contains parameters for recording a payment.
type ApplyPaymentParams struct {
	InvoiceID int64
	Target    PaymentStatus // PaymentStatusPaid or PaymentStatusPartial
	Amount    float64
	Method    string // "bank_transfer", "card", "cash", "gateway"
	Date      time.Time
	Reference string
	Notes     string
}
