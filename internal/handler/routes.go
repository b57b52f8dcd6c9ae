package handler

import (
	"context"
	"net/http"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/gateway"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Invoices   domain.InvoiceService
	Ledger     domain.LedgerService
	Approvals  domain.ApprovalService
	Reconciler domain.Reconciler
	Verifier   gateway.Verifier

	// HealthCheck pings the backing store; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// Register wires every route onto the echo instance.
func Register(e *echo.Echo, svcs Services, logger zerolog.Logger) {
	e.HideBanner = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))

	invoices := NewInvoiceHandler(svcs.Invoices, svcs.Ledger, logger)
	quotations := NewQuotationHandler(svcs.Approvals, logger)
	webhooks := NewWebhookHandler(svcs.Verifier, svcs.Reconciler, logger)

	api := e.Group("/api")
	api.POST("/invoices", invoices.Create)
	api.GET("/invoices/:id", invoices.Get)
	api.POST("/invoices/:id/payment-status", invoices.UpdatePaymentStatus)
	api.PATCH("/sales/:id/invoice-display", invoices.UpdateDisplay)
	api.POST("/quotations/:id/send", quotations.Send)

	e.GET("/invoices/view/:token", invoices.PublicView)
	e.POST("/webhooks/payments", webhooks.Receive)

	e.GET("/healthz", healthHandler(svcs.HealthCheck))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func healthHandler(check func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if check != nil {
			if err := check(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
