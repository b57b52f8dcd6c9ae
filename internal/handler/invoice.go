package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// InvoiceHandler serves invoice creation, configuration, payment actions and
// the public token view.
type InvoiceHandler struct {
	invoices domain.InvoiceService
	ledger   domain.LedgerService
	logger   zerolog.Logger
}

func NewInvoiceHandler(invoices domain.InvoiceService, ledger domain.LedgerService, logger zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		ledger:   ledger,
		logger:   logger.With().Str("handler", "invoice").Logger(),
	}
}

type createInvoiceRequest struct {
	SaleIDs []int64                `json:"saleIds" validate:"required,min=1,dive,gt=0"`
	Display *domain.DisplayOptions `json:"display"`
}

type paymentDetails struct {
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Date      string  `json:"date"` // YYYY-MM-DD, defaults to today
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

type paymentStatusRequest struct {
	Status  string          `json:"status" validate:"required,oneof=UNPAID PARTIAL PAID"`
	Payment *paymentDetails `json:"payment"`
}

type invoicePayload struct {
	ID               int64                 `json:"id"`
	Number           string                `json:"number"`
	Token            string                `json:"token"`
	Subtotal         float64               `json:"subtotal"`
	DiscountTotal    float64               `json:"discountTotal"`
	TotalAmount      float64               `json:"totalAmount"`
	PaidAmount       float64               `json:"paidAmount"`
	RemainingBalance float64               `json:"remainingBalance"`
	PaymentStatus    domain.PaymentStatus  `json:"paymentStatus"`
	Status           domain.InvoiceStatus  `json:"status"`
	Active           bool                  `json:"active"`
	Display          domain.DisplayOptions `json:"display"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func toInvoicePayload(inv *domain.Invoice) invoicePayload {
	return invoicePayload{
		ID:               inv.ID,
		Number:           inv.Number,
		Token:            inv.Token,
		Subtotal:         inv.Subtotal,
		DiscountTotal:    inv.DiscountTotal,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		RemainingBalance: inv.RemainingBalance(),
		PaymentStatus:    inv.PaymentStatus,
		Status:           inv.Status,
		Active:           inv.Active,
		Display:          inv.Display,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}

type paymentPayload struct {
	ID        int64     `json:"id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Date      time.Time `json:"date"`
	Reference string    `json:"reference,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

type salePayload struct {
	ID             int64                `json:"id"`
	NetAmount      float64              `json:"netAmount"`
	DiscountAmount float64              `json:"discountAmount"`
	PaymentStatus  domain.PaymentStatus `json:"paymentStatus"`
}

// Create handles POST /api/invoices.
func (h *InvoiceHandler) Create(c echo.Context) error {
	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.logger, domain.WrapError(err, domain.EINVALID, "invoice.create", "Malformed request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.logger, err)
	}

	inv, err := h.invoices.CreateInvoice(c.Request().Context(), domain.CreateInvoiceParams{
		SaleIDs: req.SaleIDs,
		Display: req.Display,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondData(c, http.StatusCreated, toInvoicePayload(inv))
}

// UpdateDisplay handles PATCH /api/sales/:id/invoice-display. The sale's
// invoice gets the new toggle set; totals are untouched.
func (h *InvoiceHandler) UpdateDisplay(c echo.Context) error {
	saleID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var opts domain.DisplayOptions
	if err := c.Bind(&opts); err != nil {
		return respondError(c, h.logger, domain.WrapError(err, domain.EINVALID, "invoice.display", "Malformed request body"))
	}

	inv, err := h.invoices.UpdateDisplayOptions(c.Request().Context(), saleID, opts)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondData(c, http.StatusOK, toInvoicePayload(inv))
}

// UpdatePaymentStatus handles POST /api/invoices/:id/payment-status.
// UNPAID resets the ledger; PARTIAL and PAID record a payment and require
// payment details.
func (h *InvoiceHandler) UpdatePaymentStatus(c echo.Context) error {
	invoiceID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req paymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, h.logger, domain.WrapError(err, domain.EINVALID, "invoice.payment_status", "Malformed request body"))
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.logger, err)
	}

	target := domain.PaymentStatus(req.Status)
	if target == domain.PaymentStatusUnpaid {
		inv, err := h.ledger.ResetToUnpaid(c.Request().Context(), invoiceID)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return respondData(c, http.StatusOK, toInvoicePayload(inv))
	}

	if req.Payment == nil {
		return respondError(c, h.logger, domain.NewValidationError("invoice.payment_status", "payment", "payment details are required unless status is UNPAID"))
	}
	if req.Payment.Method == "" {
		return respondError(c, h.logger, domain.NewValidationError("invoice.payment_status", "payment.method", "payment method is required"))
	}

	date := time.Now().UTC()
	if req.Payment.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Payment.Date)
		if err != nil {
			return respondError(c, h.logger, domain.NewValidationError("invoice.payment_status", "payment.date", "payment date must be YYYY-MM-DD"))
		}
		date = parsed
	}

	inv, err := h.ledger.ApplyPayment(c.Request().Context(), domain.ApplyPaymentParams{
		InvoiceID: invoiceID,
		Target:    target,
		Amount:    req.Payment.Amount,
		Method:    req.Payment.Method,
		Date:      date,
		Reference: req.Payment.Reference,
		Notes:     req.Payment.Notes,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondData(c, http.StatusOK, toInvoicePayload(inv))
}

// Get handles GET /api/invoices/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	invoiceID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	detail, err := h.invoices.GetInvoice(c.Request().Context(), invoiceID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	payments := make([]paymentPayload, 0, len(detail.Payments))
	for _, p := range detail.Payments {
		payments = append(payments, paymentPayload{
			ID: p.ID, Amount: p.Amount, Method: p.Method,
			Date: p.Date, Reference: p.Reference, Notes: p.Notes,
		})
	}
	sales := make([]salePayload, 0, len(detail.Sales))
	for _, s := range detail.Sales {
		sales = append(sales, salePayload{
			ID: s.ID, NetAmount: s.NetAmount,
			DiscountAmount: s.DiscountAmount, PaymentStatus: s.PaymentStatus,
		})
	}

	return respondData(c, http.StatusOK, map[string]interface{}{
		"invoice":  toInvoicePayload(&detail.Invoice),
		"payments": payments,
		"sales":    sales,
	})
}

// PublicView handles GET /invoices/view/:token, the unauthenticated customer
// link. Unknown tokens 404; deactivated links return an explicit disabled
// state instead of invoice content.
func (h *InvoiceHandler) PublicView(c echo.Context) error {
	token := c.Param("token")

	view, err := h.invoices.GetByToken(c.Request().Context(), token)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if view.Disabled {
		return respondData(c, http.StatusOK, map[string]interface{}{
			"disabled": true,
			"message":  "This invoice link has been disabled.",
		})
	}

	inv := view.Invoice
	sales := make([]map[string]interface{}, 0, len(view.Sales))
	for _, s := range view.Sales {
		line := map[string]interface{}{"id": s.ID}
		if inv.Display.ShowPrice {
			line["netAmount"] = s.NetAmount
			line["discountAmount"] = s.DiscountAmount
		}
		sales = append(sales, line)
	}

	payload := map[string]interface{}{
		"disabled":      false,
		"number":        inv.Number,
		"paymentStatus": inv.PaymentStatus,
		"display":       inv.Display,
		"sales":         sales,
	}
	if inv.Display.ShowPrice {
		payload["totalAmount"] = inv.TotalAmount
		payload["paidAmount"] = inv.PaidAmount
		payload["remainingBalance"] = inv.RemainingBalance()
	}
	return respondData(c, http.StatusOK, payload)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Errorf(domain.EINVALID, "handler.path", "Invalid %s parameter", name)
	}
	return id, nil
}
