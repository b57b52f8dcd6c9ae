package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NatsAuditor publishes audit events as JSON onto a NATS subject, one
// subject segment per entity (e.g. lapidary.audit.invoice). Publishing is
// fire-and-forget: a broker outage must never fail a business mutation, so
// errors are logged and dropped.
type NatsAuditor struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// Compile-time check that NatsAuditor implements domain.Auditor.
var _ domain.Auditor = (*NatsAuditor)(nil)

// NewNatsAuditor connects to the broker and returns the auditor plus a
// close function for shutdown.
func NewNatsAuditor(url, subject string, logger zerolog.Logger) (*NatsAuditor, func(), error) {
	conn, err := nats.Connect(url, nats.Name("lapidary-audit"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	a := &NatsAuditor{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "audit").Logger(),
	}
	return a, func() { conn.Drain() }, nil //nolint:errcheck
}

// Record publishes the event.
func (a *NatsAuditor) Record(_ context.Context, ev domain.AuditEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		a.logger.Error().Err(err).Str("audit_id", ev.ID).Msg("failed to encode audit event")
		return
	}

	subject := fmt.Sprintf("%s.%s", a.subject, ev.Entity)
	if err := a.conn.Publish(subject, payload); err != nil {
		a.logger.Error().Err(err).
			Str("audit_id", ev.ID).
			Str("subject", subject).
			Msg("failed to publish audit event")
	}
}
