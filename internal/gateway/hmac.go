package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/karwehn/lapidary/internal/domain"
)

// HMACVerifier verifies webhook signatures with a server-held shared secret.
type HMACVerifier struct {
	secret []byte
}

// Compile-time check that HMACVerifier implements Verifier.
var _ Verifier = (*HMACVerifier)(nil)

// NewHMACVerifier creates a verifier. An empty secret is allowed here so the
// server can boot; Verify reports it as a configuration fault per request.
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify checks the hex HMAC-SHA256 signature over the raw body.
func (v *HMACVerifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return domain.Errorf(domain.ECONFIG, "gateway.verify", "webhook secret is not configured")
	}
	if signature == "" {
		return domain.Errorf(domain.ESIGNATURE, "gateway.verify", "missing signature header")
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return domain.Errorf(domain.ESIGNATURE, "gateway.verify", "signature is not valid hex")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		return domain.Errorf(domain.ESIGNATURE, "gateway.verify", "signature mismatch")
	}
	return nil
}

// Sign computes the hex signature for a body. Used by tests and by the
// gateway simulator tooling.
func (v *HMACVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseInvoiceID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
