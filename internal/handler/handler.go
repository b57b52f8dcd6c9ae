// Package handler exposes the reconciliation core over HTTP. Handlers hold
// domain service interfaces only; transaction boundaries and business rules
// live below.
package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/karwehn/lapidary/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// response is the envelope for every JSON reply except the webhook
// acknowledgment, which the gateway contract fixes to {"status":"ok"}.
type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

// Validator adapts go-playground/validator to echo's binding hook.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator. Failures become per-field validation
// errors so the responder can report every offending field at once.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.WrapError(err, domain.EINVALID, "handler.validate", "Request validation failed")
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return &domain.ValidationError{Op: "handler.validate", Fields: fields}
}

// statusFromCode maps domain error codes to HTTP statuses.
func statusFromCode(code string) int {
	switch code {
	case domain.EINVALID, domain.EAMOUNT, domain.ESIGNATURE:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT, domain.ESTATE:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondData(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, response{Success: true, Data: data})
}

// respondError converts any error into the structured failure envelope.
// Server-side faults are logged with the wrapped cause; the client only ever
// sees the sanitized message.
func respondError(c echo.Context, logger zerolog.Logger, err error) error {
	if domain.IsValidationError(err) {
		logger.Warn().
			Err(err).
			Str("path", c.Request().URL.Path).
			Msg("request validation failed")
		return c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "Request validation failed",
			Fields:  domain.GetValidationFields(err),
		})
	}

	code := domain.ErrorCode(err)
	status := statusFromCode(code)

	evt := logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = logger.Error()
	}
	evt.Err(err).
		Str("code", code).
		Str("op", domain.ErrorOp(err)).
		Str("path", c.Request().URL.Path).
		Msg("request failed")

	return c.JSON(status, response{Success: false, Message: domain.ErrorMessage(err)})
}
