package handler

import (
	"errors"
	"net/http"

	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
)

// statusFor maps domain sentinels onto HTTP statuses. Anything
// unrecognized is an internal error; handlers never leak raw storage or
// gateway errors into status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, zanzar_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, zanzar_errors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, zanzar_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, zanzar_errors.ErrAlreadyExists):
		return http.StatusConflict, "ALREADY_EXISTS"
	case errors.Is(err, zanzar_errors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, zanzar_errors.ErrAlreadyCancelled):
		return http.StatusConflict, "ALREADY_CANCELLED"
	case errors.Is(err, zanzar_errors.ErrNotPending):
		return http.StatusConflict, "NOT_PENDING"
	case errors.Is(err, zanzar_errors.ErrCartLimitReached):
		return http.StatusUnprocessableEntity, "CART_LIMIT_REACHED"
	case errors.Is(err, zanzar_errors.ErrMaxItemsExceeded):
		return http.StatusUnprocessableEntity, "MAX_ITEMS_EXCEEDED"
	case errors.Is(err, zanzar_errors.ErrInsufficientStock):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"
	case errors.Is(err, zanzar_errors.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY"
	case errors.Is(err, zanzar_errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, zanzar_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}
