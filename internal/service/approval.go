package service

import (
	"context"
	"fmt"

	"github.com/karwehn/lapidary/internal/audit"
	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/repository"
	"github.com/karwehn/lapidary/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ApprovalService evaluates a draft quotation against the configured margin
// and amount rules at send time.
type ApprovalService struct {
	store   repository.Store
	auditor domain.Auditor
	logger  zerolog.Logger
}

var _ domain.ApprovalService = (*ApprovalService)(nil)

func NewApprovalService(store repository.Store, auditor domain.Auditor, logger zerolog.Logger) *ApprovalService {
	return &ApprovalService{
		store:   store,
		auditor: auditor,
		logger:  logger.With().Str("service", "approval").Logger(),
	}
}

// EvaluateSend runs the rule engine for a quotation leaving DRAFT. Rules are
// checked in ascending priority and the first match holds the quotation at
// PENDING_APPROVAL; otherwise it proceeds to SENT. The resulting transition
// is persisted and recorded with the auditor.
func (s *ApprovalService) EvaluateSend(ctx context.Context, quotationID int64) (*domain.SendDecision, error) {
	q, err := s.store.GetQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if q.Status != domain.QuotationStatusDraft {
		return nil, domain.ErrQuotationNotDraft
	}

	rules, err := s.store.ListActiveApprovalRules(ctx)
	if err != nil {
		return nil, err
	}

	revenue := decimal.NewFromFloat(q.TotalAmount)
	cost, err := s.quotationCost(ctx, q)
	if err != nil {
		return nil, err
	}
	margin := marginPercent(revenue, cost)

	decision := &domain.SendDecision{NewStatus: domain.QuotationStatusSent}
	var matched *domain.ApprovalRule
	for i, rule := range rules {
		if breaches(rule, revenue, margin) {
			matched = &rules[i]
			decision.NewStatus = domain.QuotationStatusPendingApproval
			decision.RequiresApproval = true
			decision.Reason = breachReason(rule, revenue, margin)
			break
		}
	}

	if !q.Status.CanTransitionTo(decision.NewStatus) {
		return nil, domain.Errorf(domain.ESTATE, "approval.evaluate_send", "Quotation cannot move from %s to %s", q.Status, decision.NewStatus)
	}
	if err := s.store.UpdateQuotationStatus(ctx, q.ID, decision.NewStatus); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent("quotation", q.ID, "status_change").
		WithStatusChange(string(q.Status), string(decision.NewStatus)).
		WithReason(decision.Reason))

	if telemetry.Business != nil {
		if matched != nil {
			telemetry.Business.QuotationsGated.WithLabelValues(string(matched.Kind)).Inc()
		} else {
			telemetry.Business.QuotationsSent.Inc()
		}
	}

	evt := s.logger.Info().
		Int64("quotation_id", q.ID).
		Str("new_status", string(decision.NewStatus)).
		Str("margin_percent", margin.StringFixed(2))
	if matched != nil {
		evt = evt.Str("rule", matched.Name).Str("reason", decision.Reason)
	}
	evt.Msg("quotation send evaluated")

	return decision, nil
}

// quotationCost sums the acquisition cost of every line backed by an
// inventory item. Free-form lines cost nothing.
func (s *ApprovalService) quotationCost(ctx context.Context, q *domain.Quotation) (decimal.Decimal, error) {
	var ids []int64
	for _, item := range q.Items {
		if item.InventoryItemID != nil {
			ids = append(ids, *item.InventoryItemID)
		}
	}

	cost := decimal.Zero
	if len(ids) == 0 {
		return cost, nil
	}
	stones, err := s.store.GetInventoryItems(ctx, ids)
	if err != nil {
		return decimal.Zero, err
	}
	for _, id := range ids {
		if stone, ok := stones[id]; ok {
			cost = cost.Add(decimal.NewFromFloat(stone.PurchaseValue()))
		}
	}
	return cost, nil
}

// marginPercent is (revenue - cost) / revenue * 100, or zero when revenue is
// zero.
func marginPercent(revenue, cost decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return revenue.Sub(cost).Div(revenue).Mul(decimal.NewFromInt(100))
}

func breaches(rule domain.ApprovalRule, revenue, margin decimal.Decimal) bool {
	threshold := decimal.NewFromFloat(rule.Threshold)
	switch rule.Kind {
	case domain.RuleKindMargin:
		return margin.LessThan(threshold)
	case domain.RuleKindAmount:
		return revenue.GreaterThan(threshold)
	}
	return false
}

func breachReason(rule domain.ApprovalRule, revenue, margin decimal.Decimal) string {
	threshold := decimal.NewFromFloat(rule.Threshold)
	if rule.Kind == domain.RuleKindMargin {
		return fmt.Sprintf("margin %s%% below threshold %s%%", margin.StringFixed(2), threshold.String())
	}
	return fmt.Sprintf("total %s exceeds threshold %s", revenue.StringFixed(2), threshold.String())
}
