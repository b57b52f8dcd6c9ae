package handler

import (
	"net/http"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// QuotationHandler serves the quotation send action.
type QuotationHandler struct {
	approvals domain.ApprovalService
	logger    zerolog.Logger
}

func NewQuotationHandler(approvals domain.ApprovalService, logger zerolog.Logger) *QuotationHandler {
	return &QuotationHandler{
		approvals: approvals,
		logger:    logger.With().Str("handler", "quotation").Logger(),
	}
}

type sendDecisionPayload struct {
	NewStatus        domain.QuotationStatus `json:"newStatus"`
	RequiresApproval bool                   `json:"requiresApproval"`
	Reason           string                 `json:"reason,omitempty"`
}

// Send handles POST /api/quotations/:id/send. The approval gate decides
// whether the quotation proceeds to SENT or is held at PENDING_APPROVAL.
func (h *QuotationHandler) Send(c echo.Context) error {
	quotationID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	decision, err := h.approvals.EvaluateSend(c.Request().Context(), quotationID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return respondData(c, http.StatusOK, sendDecisionPayload{
		NewStatus:        decision.NewStatus,
		RequiresApproval: decision.RequiresApproval,
		Reason:           decision.Reason,
	})
}
