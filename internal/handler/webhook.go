package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/gateway"
	"github.com/karwehn/lapidary/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WebhookHandler receives payment-gateway notifications. The signature is
// checked over the raw body before any decoding; everything past that point
// is the reconciler's problem.
type WebhookHandler struct {
	verifier   gateway.Verifier
	reconciler domain.Reconciler
	logger     zerolog.Logger
}

func NewWebhookHandler(verifier gateway.Verifier, reconciler domain.Reconciler, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger.With().Str("handler", "webhook").Logger(),
	}
}

// Receive handles POST /webhooks/payments. The gateway retries on anything
// but 2xx, so every recognized-and-handled delivery acknowledges with
// {"status":"ok"} even when it was dropped.
func (h *WebhookHandler) Receive(c echo.Context) error {
	start := time.Now()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respondError(c, h.logger, domain.WrapError(err, domain.EINVALID, "webhook.receive", "Unable to read request body"))
	}

	if err := h.verifier.Verify(body, c.Request().Header.Get(gateway.SignatureHeader)); err != nil {
		code := domain.ErrorCode(err)
		if code == domain.ECONFIG {
			// Accepting unverified payments silently is the one failure
			// mode this endpoint must never have. Page somebody.
			telemetry.CaptureError(err, map[string]interface{}{"endpoint": "webhooks/payments"})
		}
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(code).Inc()
		}
		return respondError(c, h.logger, err)
	}

	ev, err := gateway.ParseEvent(body)
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
		}
		return respondError(c, h.logger, err)
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(ev.Kind).Inc()
	}

	outcome, err := h.reconciler.Process(c.Request().Context(), *ev)
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
		}
		return respondError(c, h.logger, err)
	}

	if telemetry.Business != nil {
		if outcome.Applied {
			telemetry.Business.WebhookProcessed.WithLabelValues(ev.Kind).Inc()
		}
		if outcome.Dropped {
			telemetry.Business.WebhookDropped.WithLabelValues(ev.Kind, outcome.Reason).Inc()
		}
		telemetry.Business.WebhookLatency.WithLabelValues(ev.Kind).Observe(time.Since(start).Seconds())
	}

	h.logger.Info().
		Str("event", ev.Kind).
		Str("payment_id", ev.PaymentID).
		Bool("applied", outcome.Applied).
		Bool("dropped", outcome.Dropped).
		Str("reason", outcome.Reason).
		Msg("webhook processed")

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
