package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestQuotationSend(t *testing.T) {
	t.Run("returns the gate decision", func(t *testing.T) {
		approvals := &mockApprovalService{
			EvaluateSendFn: func(_ context.Context, id int64) (*domain.SendDecision, error) {
				assert.Equal(t, int64(3), id)
				return &domain.SendDecision{
					NewStatus:        domain.QuotationStatusPendingApproval,
					RequiresApproval: true,
					Reason:           "margin 5.00% below threshold 10%",
				}, nil
			},
		}
		e := newEcho()
		h := NewQuotationHandler(approvals, zerolog.Nop())
		e.POST("/api/quotations/:id/send", h.Send)

		rec := doJSON(e, http.MethodPost, "/api/quotations/3/send", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"requiresApproval":true`)
		assert.Contains(t, rec.Body.String(), "margin 5.00% below threshold 10%")
	})

	t.Run("non-draft quotation is 409", func(t *testing.T) {
		approvals := &mockApprovalService{
			EvaluateSendFn: func(context.Context, int64) (*domain.SendDecision, error) {
				return nil, domain.ErrQuotationNotDraft
			},
		}
		e := newEcho()
		h := NewQuotationHandler(approvals, zerolog.Nop())
		e.POST("/api/quotations/:id/send", h.Send)

		rec := doJSON(e, http.MethodPost, "/api/quotations/3/send", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown quotation is 404", func(t *testing.T) {
		approvals := &mockApprovalService{
			EvaluateSendFn: func(context.Context, int64) (*domain.SendDecision, error) {
				return nil, domain.ErrQuotationNotFound
			},
		}
		e := newEcho()
		h := NewQuotationHandler(approvals, zerolog.Nop())
		e.POST("/api/quotations/:id/send", h.Send)

		rec := doJSON(e, http.MethodPost, "/api/quotations/3/send", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
