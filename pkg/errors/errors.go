package zanzar_errors

import "errors"

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Cart and purchase errors
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrCartLimitReached  = errors.New("cart limit reached")
	ErrMaxItemsExceeded  = errors.New("too many distinct items in a single purchase")
	ErrAlreadyCancelled  = errors.New("already cancelled")
	ErrNotPending        = errors.New("order is not pending")
)
