package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	Query   string
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Stock *int            `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

type UpdateRequest struct {
	ID    string           `json:"-"`
	Name  *string          `json:"name"`
	Stock *int             `json:"stock"`
	Price *decimal.Decimal `json:"price"`
}

type Response struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidCode  = errors.New("invalid_code")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidStock = errors.New("invalid_stock")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrCodeTaken    = errors.New("code_taken")
)
