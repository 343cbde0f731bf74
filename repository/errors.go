package repository

import (
	"errors"
	"fmt"
	"strings"

	"food-delivery-api/apperrors"

	"gorm.io/gorm"
)

const (
	errOrderNotFound      = "Order not found"
	errRestaurantNotFound = "Restaurant not found"
	errMenuItemNotFound   = "Menu item not found"
	errUserNotFound       = "User not found"
	errInvoiceNotFound    = "Invoice not found"
)

// notFoundOr maps gorm's missing-row error to a NotFound and wraps anything
// else with the failing operation.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
