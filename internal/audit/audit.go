// Package audit provides Activity Auditor adapters. The core emits
// structured before/after events; these adapters carry them to whatever
// actually stores the trail.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/karwehn/lapidary/internal/domain"
	"github.com/rs/zerolog"
)

// NewEvent fills in the identity and timestamp fields callers always want.
func NewEvent(entity string, entityID int64, action string) domain.AuditEvent {
	return domain.AuditEvent{
		ID:       uuid.NewString(),
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		At:       time.Now().UTC(),
	}
}

// LogAuditor writes audit events to the structured log. It is the fallback
// when no message broker is configured.
type LogAuditor struct {
	logger zerolog.Logger
}

// Compile-time check that LogAuditor implements domain.Auditor.
var _ domain.Auditor = (*LogAuditor)(nil)

// NewLogAuditor creates a log-backed auditor.
func NewLogAuditor(logger zerolog.Logger) *LogAuditor {
	return &LogAuditor{logger: logger.With().Str("component", "audit").Logger()}
}

// Record logs the event.
func (a *LogAuditor) Record(_ context.Context, ev domain.AuditEvent) {
	a.logger.Info().
		Str("audit_id", ev.ID).
		Str("entity", ev.Entity).
		Int64("entity_id", ev.EntityID).
		Str("action", ev.Action).
		Str("old_status", ev.OldStatus).
		Str("new_status", ev.NewStatus).
		Str("reason", ev.Reason).
		Msg("audit event")
}
