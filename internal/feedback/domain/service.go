package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
}

type CreateRequest struct {
	UserID  snowflake.ID `json:"-"`
	Message string       `json:"message"`
}

type Response struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidMessage = errors.New("invalid_message")
	ErrInvalidUser    = errors.New("invalid_user")
)
