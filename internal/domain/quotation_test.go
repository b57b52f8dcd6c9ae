package domain

import "testing"

func TestQuotationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from QuotationStatus
		to   QuotationStatus
		want bool
	}{
		{QuotationStatusDraft, QuotationStatusSent, true},
		{QuotationStatusDraft, QuotationStatusPendingApproval, true},
		{QuotationStatusDraft, QuotationStatusAccepted, false},
		{QuotationStatusSent, QuotationStatusSent, false},
		{QuotationStatusPendingApproval, QuotationStatusApproved, true},
		{QuotationStatusApproved, QuotationStatusSent, true},
		{QuotationStatusSent, QuotationStatusAccepted, true},
		{QuotationStatusAccepted, QuotationStatusConverted, true},
		{QuotationStatusConverted, QuotationStatusDraft, false},
		{QuotationStatusCancelled, QuotationStatusSent, false},
		{QuotationStatusExpired, QuotationStatusActive, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		name  string
		paid  float64
		total float64
		want  PaymentStatus
	}{
		{"zero paid", 0, 500, PaymentStatusUnpaid},
		{"partial", 100, 500, PaymentStatusPartial},
		{"exact", 500, 500, PaymentStatusPaid},
		{"within tolerance", 499.995, 500, PaymentStatusPaid},
		{"just outside tolerance", 499.98, 500, PaymentStatusPartial},
		{"overpaid", 510, 500, PaymentStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePaymentStatus(tt.paid, tt.total); got != tt.want {
				t.Errorf("DerivePaymentStatus(%v, %v) = %s, want %s", tt.paid, tt.total, got, tt.want)
			}
		})
	}
}

func TestInventoryItem_PurchaseValue(t *testing.T) {
	perCarat := InventoryItem{PricedPerCarat: true, PurchaseRatePerCarat: 120, CaratWeight: 2.5}
	if got := perCarat.PurchaseValue(); got != 300 {
		t.Errorf("per-carat PurchaseValue() = %v, want 300", got)
	}

	flat := InventoryItem{PricedPerCarat: false, PurchaseCost: 950, PurchaseRatePerCarat: 120, CaratWeight: 2.5}
	if got := flat.PurchaseValue(); got != 950 {
		t.Errorf("flat PurchaseValue() = %v, want 950", got)
	}
}
