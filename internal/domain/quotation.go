package domain

import (
	"context"
	"time"
)

// QuotationStatus is the quotation lifecycle state.
type QuotationStatus string

const (
	QuotationStatusDraft           QuotationStatus = "DRAFT"
	QuotationStatusSent            QuotationStatus = "SENT"
	QuotationStatusPendingApproval QuotationStatus = "PENDING_APPROVAL"
	QuotationStatusApproved        QuotationStatus = "APPROVED"
	QuotationStatusAccepted        QuotationStatus = "ACCEPTED"
	QuotationStatusActive          QuotationStatus = "ACTIVE"
	QuotationStatusConverted       QuotationStatus = "CONVERTED"
	QuotationStatusCancelled       QuotationStatus = "CANCELLED"
	QuotationStatusExpired         QuotationStatus = "EXPIRED"
)

// Valid reports whether s is a member of the closed status set.
func (s QuotationStatus) Valid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSent, QuotationStatusPendingApproval,
		QuotationStatusApproved, QuotationStatusAccepted, QuotationStatusActive,
		QuotationStatusConverted, QuotationStatusCancelled, QuotationStatusExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is legal.
// CONVERTED, CANCELLED and EXPIRED are terminal.
func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	var allowed []QuotationStatus

	switch s {
	case QuotationStatusDraft:
		allowed = []QuotationStatus{QuotationStatusSent, QuotationStatusPendingApproval, QuotationStatusCancelled}
	case QuotationStatusPendingApproval:
		allowed = []QuotationStatus{QuotationStatusApproved, QuotationStatusCancelled}
	case QuotationStatusApproved:
		allowed = []QuotationStatus{QuotationStatusSent}
	case QuotationStatusSent:
		allowed = []QuotationStatus{QuotationStatusAccepted, QuotationStatusExpired, QuotationStatusCancelled}
	case QuotationStatusAccepted:
		allowed = []QuotationStatus{QuotationStatusActive, QuotationStatusConverted}
	case QuotationStatusActive:
		allowed = []QuotationStatus{QuotationStatusConverted, QuotationStatusExpired, QuotationStatusCancelled}
	}

	for _, a := range allowed {
		if a == next {
			return true
		}
	}
	return false
}

// Quotation-related domain errors.
var (
	ErrQuotationNotFound = &Error{Code: ENOTFOUND, Message: "Quotation not found"}
	ErrQuotationNotDraft = &Error{Code: ESTATE, Message: "Only draft quotations can be sent"}
)

// Quotation is a pre-sale priced offer to a customer, independent of
// inventory commitment until converted.
type Quotation struct {
	ID            int64
	Number        string
	CustomerName  string
	CustomerEmail string
	TotalAmount   float64
	ExpiresAt     *time.Time
	Status        QuotationStatus
	Token         string
	Items         []QuotationItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QuotationItem is one offered line. BasePrice is the computed ERP price;
// an optional override produces the final unit price. Items without a
// linked inventory item contribute zero cost to the margin computation.
type QuotationItem struct {
	ID              int64
	QuotationID     int64
	InventoryItemID *int64
	BasePrice       float64
	OverrideType    string // "" (none), "FLAT", "DISCOUNT_PERCENT"
	OverrideValue   float64
	UnitPrice       float64
	Subtotal        float64
}

// InventoryItem carries the purchase-side pricing needed to cost a
// quotation line. Stones are priced either per carat or flat.
type InventoryItem struct {
	ID                   int64
	Sku                  string
	Name                 string
	PricedPerCarat       bool
	PurchaseCost         float64 // flat purchase cost
	PurchaseRatePerCarat float64
	CaratWeight          float64
}

// PurchaseValue is the acquisition cost of the stone.
func (it *InventoryItem) PurchaseValue() float64 {
	if it.PricedPerCarat {
		return it.PurchaseRatePerCarat * it.CaratWeight
	}
	return it.PurchaseCost
}

// RuleKind discriminates approval rules. Only MARGIN and AMOUNT exist.
type RuleKind string

const (
	RuleKindMargin RuleKind = "MARGIN" // matches when margin percent < threshold
	RuleKindAmount RuleKind = "AMOUNT" // matches when total revenue > threshold
)

// ApprovalRule gates a quotation's transition from draft to sent. Rules are
// evaluated in ascending priority order and the first match wins.
type ApprovalRule struct {
	ID        int64
	Name      string
	Kind      RuleKind
	Threshold float64
	Priority  int
	Active    bool
}

// SendDecision is the outcome of evaluating a quotation at send time.
type SendDecision struct {
	NewStatus        QuotationStatus
	RequiresApproval bool
	Reason           string
}

// ApprovalService gates quotation sending on configured margin and amount
// rules.
type ApprovalService interface {
	// EvaluateSend decides whether the quotation proceeds to SENT or is held
	// at PENDING_APPROVAL, persists the new status, and records the decision
	// with the activity auditor. Legal only from DRAFT.
	EvaluateSend(ctx context.Context, quotationID int64) (*SendDecision, error)
}
