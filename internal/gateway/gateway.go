// Package gateway is the trust boundary for inbound payment-gateway
// notifications: signature verification and event decoding. It knows nothing
// about invoices; the reconciler service owns those semantics.
package gateway

import (
	"encoding/json"

	"github.com/karwehn/lapidary/internal/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Gateway-Signature"

// Verifier checks a webhook body against its signature.
type Verifier interface {
	// Verify returns nil when signature is a valid hex HMAC-SHA256 of body.
	// Returns a domain error with code ECONFIG when no secret is
	// configured and ESIGNATURE on any mismatch.
	Verify(body []byte, signature string) error
}

// Envelope mirrors the gateway's webhook JSON shape.
type Envelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string            `json:"id"`
				Notes            map[string]string `json:"notes"`
				Amount           float64           `json:"amount"`
				ErrorDescription string            `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseEvent decodes a verified webhook body into a domain payment event.
func ParseEvent(body []byte) (*domain.PaymentEvent, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, "gateway.parse", "malformed webhook payload")
	}
	if env.Event == "" {
		return nil, domain.Errorf(domain.EINVALID, "gateway.parse", "webhook payload has no event kind")
	}

	entity := env.Payload.Payment.Entity
	ev := &domain.PaymentEvent{
		Kind:             env.Event,
		PaymentID:        entity.ID,
		Amount:           entity.Amount,
		ErrorDescription: entity.ErrorDescription,
	}

	if raw, ok := entity.Notes["invoiceId"]; ok && raw != "" {
		id, err := parseInvoiceID(raw)
		if err != nil {
			// A malformed reference is treated like an absent one; the
			// reconciler logs and drops the event.
			return ev, nil
		}
		ev.InvoiceID = &id
	}

	return ev, nil
}
