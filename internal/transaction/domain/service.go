package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/pkg/db/pagination"
)

type Service interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	// Date filters to one calendar day (YYYY-MM-DD) in the store timezone.
	Date string
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Transactions []Response `json:"transactions"`
}

type ItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type Response struct {
	ID              string         `json:"id"`
	ReceiptNo       string         `json:"receipt_no"`
	UserID          string         `json:"user_id"`
	CashierName     string         `json:"cashier_name,omitempty"`
	Subtotal        string         `json:"subtotal"`
	DiscountPercent string         `json:"discount_percent"`
	Discount        string         `json:"discount"`
	VAT             string         `json:"vat"`
	Total           string         `json:"total"`
	Cash            string         `json:"cash"`
	Change          string         `json:"change"`
	Items           []ItemResponse `json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
}

func NewResponse(t *Transaction, cashierName string) Response {
	items := make([]ItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, ItemResponse{
			ID:        item.ProductID.String(),
			Name:      item.Name,
			Price:     money(item.Price),
			Quantity:  item.Quantity,
			LineTotal: money(item.LineTotal),
		})
	}

	return Response{
		ID:              t.ID.String(),
		ReceiptNo:       t.ReceiptNo,
		UserID:          t.UserID.String(),
		CashierName:     cashierName,
		Subtotal:        money(t.Subtotal),
		DiscountPercent: t.DiscountPercent.String(),
		Discount:        money(t.DiscountAmount),
		VAT:             money(t.VATAmount),
		Total:           money(t.Total),
		Cash:            money(t.CashTendered),
		Change:          money(t.ChangeDue),
		Items:           items,
		CreatedAt:       t.CreatedAt,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

var (
	ErrInvalidID   = errors.New("invalid_id")
	ErrInvalidDate = errors.New("invalid_date")
	ErrNotFound    = errors.New("not_found")
)
