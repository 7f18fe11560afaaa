package entities

import (
	"errors"
	"fmt"
)

// Ledger error taxonomy. Callers match with errors.Is; every returned error
// wraps exactly one of these.
var (
	// ErrPrecondition is the assertion class: the caller asked for something
	// that can never succeed in the current state.
	ErrPrecondition = errors.New("precondition violated")

	// ErrInsufficientStock is returned when an allocation exceeds the
	// available balance. Callers may retry with a smaller quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOverConsumption is returned when a consumption would exceed needed - lost.
	ErrOverConsumption = errors.New("over consumption")

	// ErrOverLoss is returned when a loss would exceed the remaining allowance.
	ErrOverLoss = errors.New("over loss")

	ErrNotFound = errors.New("not found")
)

var (
	ErrOrderClosed       = fmt.Errorf("%w: production order is closed", ErrPrecondition)
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrPrecondition)
	ErrNotStorable       = fmt.Errorf("%w: product is not storable", ErrPrecondition)
)
