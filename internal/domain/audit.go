package domain

import (
	"context"
	"time"
)

// AuditEvent is a structured before/after snapshot handed to the activity
// auditor. The core emits these; storage and retention live elsewhere.
type AuditEvent struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"` // "invoice", "quotation", "payment"
	EntityID  int64             `json:"entityId"`
	Action    string            `json:"action"` // "status_change", "payment_recorded", "payment_reset", ...
	OldStatus string            `json:"oldStatus,omitempty"`
	NewStatus string            `json:"newStatus,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	At        time.Time         `json:"at"`
}

// WithStatusChange returns a copy of the event carrying a before/after
// status pair.
func (ev AuditEvent) WithStatusChange(old, new string) AuditEvent {
	ev.OldStatus = old
	ev.NewStatus = new
	return ev
}

// WithReason returns a copy of the event with a human-readable reason.
func (ev AuditEvent) WithReason(reason string) AuditEvent {
	ev.Reason = reason
	return ev
}

// WithMeta returns a copy of the event with an extra metadata entry.
func (ev AuditEvent) WithMeta(key, value string) AuditEvent {
	meta := make(map[string]string, len(ev.Meta)+1)
	for k, v := range ev.Meta {
		meta[k] = v
	}
	meta[key] = value
	ev.Meta = meta
	return ev
}

// Auditor receives audit events from the reconciliation core. Recording is
// best-effort from the caller's point of view; implementations must not
// block business mutations on audit-trail availability.
type Auditor interface {
	Record(ctx context.Context, ev AuditEvent)
}

// PaymentEvent is a parsed, signature-verified gateway notification.
type PaymentEvent struct {
	Kind             string // "payment.captured" or "payment.failed"
	PaymentID        string
	InvoiceID        *int64 // from the gateway notes metadata; may be absent
	Amount           float64
	ErrorDescription string
}

// Gateway event kinds recognized by the reconciler.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// ReconcileOutcome describes what a webhook delivery did.
type ReconcileOutcome struct {
	// Applied is true when the delivery resulted in a ledger mutation.
	Applied bool

	// Dropped is true when the event was acknowledged without action
	// (no invoice reference, unknown kind, or already settled).
	Dropped bool

	Reason string
}

// Reconciler drives the payment ledger from verified gateway events,
// exactly once per captured payment.
type Reconciler interface {
	Process(ctx context.Context, ev PaymentEvent) (*ReconcileOutcome, error)
}
