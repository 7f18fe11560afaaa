package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Qty builds a quantity from a whole number of units
func Qty(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// MustQty parses a quantity and panics on malformed input.
// Use only in fixtures and tests.
func MustQty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ParseQuantity parses a non-negative decimal quantity
func ParseQuantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	if q.IsNegative() {
		return decimal.Zero, fmt.Errorf("quantity cannot be negative, got %s", q)
	}
	return q, nil
}

// RequirePositive rejects zero and negative quantities with ErrPrecondition
func RequirePositive(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrPrecondition, q)
	}
	return nil
}
