package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/checkout"
	obscontext "github.com/smallbiznis/pharmapos/internal/observability/context"
	"github.com/smallbiznis/pharmapos/internal/pricing"
	txdomain "github.com/smallbiznis/pharmapos/internal/transaction/domain"
)

const headerIdempotencyKey = "Idempotency-Key"

type checkoutItemRequest struct {
	ID       snowflake.ID    `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items"`
	DiscountPercent decimal.Decimal       `json:"discount_percent"`
	Cash            decimal.Decimal       `json:"cash"`
	IdempotencyKey  string                `json:"idempotency_key"`
}

func (r checkoutRequest) lineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, pricing.LineItem{
			ProductID: item.ID,
			Name:      strings.TrimSpace(item.Name),
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}
	return items
}

type previewResponse struct {
	Subtotal        string `json:"subtotal"`
	DiscountPercent string `json:"discount_percent"`
	Discount        string `json:"discount"`
	VATRate         string `json:"vat_rate"`
	VAT             string `json:"vat"`
	Total           string `json:"total"`
	Change          string `json:"change,omitempty"`
}

func (s *Server) PreviewCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	priced, err := s.checkout.Preview(req.lineItems(), req.DiscountPercent)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := previewResponse{
		Subtotal:        priced.Subtotal.StringFixed(2),
		DiscountPercent: priced.DiscountPercent.StringFixed(2),
		Discount:        priced.DiscountAmount.StringFixed(2),
		VATRate:         priced.VATRate.String(),
		VAT:             priced.VATAmount.StringFixed(2),
		Total:           priced.GrandTotal.StringFixed(2),
	}
	if !req.Cash.IsZero() {
		change, err := priced.Change(req.Cash)
		switch {
		case errors.Is(err, pricing.ErrInvalidCash):
			AbortWithError(c, err)
			return
		case err == nil:
			resp.Change = change.StringFixed(2)
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Checkout records a sale for the authenticated cashier. A replayed
// idempotency key answers 200 with the original transaction.
func (s *Server) Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	}

	result, err := s.checkout.Checkout(c.Request.Context(), checkout.Request{
		Items:           req.lineItems(),
		DiscountPercent: req.DiscountPercent,
		CashTendered:    req.Cash,
		CashierID:       user.ID,
		CashierName:     user.Name,
		IdempotencyKey:  key,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(obscontext.GinKeyReceiptNo, result.Transaction.ReceiptNo)

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": txdomain.NewResponse(result.Transaction, user.Name)})
}
