package domain

import "time"

// PaymentStatus is the settlement state shared by invoices and their sales.
// A sale never derives its own status; the Payment Ledger fans the invoice
// status out to every linked sale inside the same transaction.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Valid reports whether s is a member of the closed status set.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// Sale is one sold inventory line. It is created when an inventory item is
// marked sold and outlives invoice regeneration; an invoice references sales
// but does not own them.
type Sale struct {
	ID              int64
	InventoryItemID int64
	NetAmount       float64 // selling price minus discount
	DiscountAmount  float64
	PaymentStatus   PaymentStatus
	InvoiceID       *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Invoiced reports whether the sale is already covered by an invoice.
func (s *Sale) Invoiced() bool {
	return s.InvoiceID != nil
}
