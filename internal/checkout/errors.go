package checkout

import "errors"

var (
	ErrInvalidCashier     = errors.New("invalid_cashier")
	ErrInvalidProduct     = errors.New("invalid_product")
	ErrCheckoutInProgress = errors.New("checkout_in_progress")
	ErrNotFound           = errors.New("not_found")

	// ErrIdempotencyKeyReused is returned when a key already belongs to
	// another cashier's transaction.
	ErrIdempotencyKeyReused = errors.New("idempotency_key_reused")
)
