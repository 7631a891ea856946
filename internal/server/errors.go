package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/pharmapos/internal/auth/domain"
	"github.com/smallbiznis/pharmapos/internal/authorization"
	"github.com/smallbiznis/pharmapos/internal/checkout"
	feedbackdomain "github.com/smallbiznis/pharmapos/internal/feedback/domain"
	"github.com/smallbiznis/pharmapos/internal/inventory"
	"github.com/smallbiznis/pharmapos/internal/pricing"
	productdomain "github.com/smallbiznis/pharmapos/internal/product/domain"
	"github.com/smallbiznis/pharmapos/internal/providers/slack"
	txdomain "github.com/smallbiznis/pharmapos/internal/transaction/domain"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"github.com/smallbiznis/pharmapos/pkg/db/pagination"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
	ErrNotificationFailed = errors.New("notification_failed")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog feeds the request logger the same type the client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusConflict, errorPayload{
			Type:    "insufficient_stock",
			Message: stockErr.Error(),
			Details: map[string]any{
				"product_id": stockErr.ProductID.String(),
				"name":       stockErr.Name,
				"available":  stockErr.Available,
				"requested":  stockErr.Requested,
			},
		}
	}

	var missingErr *inventory.ProductNotFoundError
	if errors.As(err, &missingErr) {
		return http.StatusNotFound, errorPayload{
			Type:    "product_not_found",
			Message: "product not found",
			Details: map[string]any{
				"product_id": missingErr.ProductID.String(),
			},
		}
	}

	if isNotFoundError(err) {
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}
	}
	for _, rule := range errorRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.status, errorPayload{Type: rule.kind, Message: rule.message}
			}
		}
	}
	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// errorRule maps a group of sentinels onto one response. Rules are checked
// in order, so specific sentinels come before broad ones.
type errorRule struct {
	status  int
	kind    string
	message string
	targets []error
}

var errorRules = []errorRule{
	{http.StatusUnprocessableEntity, "insufficient_cash", "cash tendered is less than the total",
		[]error{pricing.ErrInsufficientCash}},
	{http.StatusConflict, "insufficient_stock", "insufficient stock",
		[]error{inventory.ErrInsufficientStock}},
	{http.StatusNotFound, "product_not_found", "product not found",
		[]error{inventory.ErrProductNotFound}},
	{http.StatusConflict, "checkout_in_progress", "a checkout with this idempotency key is in progress",
		[]error{checkout.ErrCheckoutInProgress}},
	{http.StatusConflict, "idempotency_key_reused", "idempotency key belongs to another cashier's transaction",
		[]error{checkout.ErrIdempotencyKeyReused}},
	{http.StatusUnauthorized, "unauthorized", "unauthorized", []error{
		ErrUnauthorized,
		authdomain.ErrInvalidCredentials,
		authdomain.ErrInvalidSession,
		authdomain.ErrSessionNotFound,
		authdomain.ErrSessionExpired,
		authdomain.ErrSessionRevoked,
	}},
	{http.StatusForbidden, "forbidden", "forbidden", []error{
		ErrForbidden,
		authorization.ErrForbidden,
		authorization.ErrInvalidRole,
		authorization.ErrInvalidObject,
		authorization.ErrInvalidAction,
	}},
	{http.StatusTooManyRequests, "rate_limited", "too many requests",
		[]error{ErrRateLimited}},
	{http.StatusConflict, "conflict", "conflict",
		[]error{ErrConflict, authdomain.ErrUserExists, productdomain.ErrCodeTaken}},
	{http.StatusServiceUnavailable, "notification_not_configured", "notification sink is not configured",
		[]error{slack.ErrNotConfigured}},
	{http.StatusBadGateway, "notification_failed", "notification could not be delivered",
		[]error{ErrNotificationFailed}},
	{http.StatusServiceUnavailable, "service_unavailable", "service unavailable",
		[]error{ErrServiceUnavailable}},
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrs = []error{
	ErrInvalidRequest,
	pricing.ErrEmptyCart,
	pricing.ErrInvalidQuantity,
	pricing.ErrInvalidDiscount,
	pricing.ErrInvalidUnitPrice,
	pricing.ErrInvalidVATRate,
	pricing.ErrInvalidCash,
	inventory.ErrInvalidQuantity,
	checkout.ErrInvalidProduct,
	checkout.ErrInvalidCashier,
	productdomain.ErrInvalidCode,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidStock,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidID,
	authdomain.ErrInvalidName,
	authdomain.ErrInvalidEmail,
	authdomain.ErrInvalidPassword,
	authdomain.ErrInvalidRole,
	authdomain.ErrInvalidID,
	txdomain.ErrInvalidID,
	txdomain.ErrInvalidDate,
	feedbackdomain.ErrInvalidMessage,
	feedbackdomain.ErrInvalidUser,
	pagination.ErrInvalidPageToken,
}

func isValidationError(err error) bool {
	return validationSentinel(err) != nil
}

func validationSentinel(err error) error {
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, txdomain.ErrNotFound),
		errors.Is(err, checkout.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		db.IsNotFound(err):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if target := validationSentinel(err); target != nil {
		return target.Error()
	}
	return "invalid_request"
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "empty_cart":
		return "items"
	case "invalid_unit_price":
		return "price"
	case "invalid_discount":
		return "discount_percent"
	case "invalid_page_token":
		return "page_token"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "empty_cart":
		return "cart has no items"
	case "invalid_quantity":
		return "quantity must be between 1 and 100000"
	case "invalid_cash":
		return "cash must be a non-negative amount with at most 2 decimal places"
	case "invalid_discount":
		return "discount must be between 0 and 100"
	case "invalid_unit_price":
		return "price must be a non-negative amount with at most 2 decimal places"
	case "invalid_message":
		return "message must be at least 5 characters"
	case "invalid_date":
		return "date must be YYYY-MM-DD"
	default:
		return "invalid value"
	}
}
