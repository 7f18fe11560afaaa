package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vsinha/production/pkg/domain/entities"
)

// StockLedger holds the on-hand balance of every (product, branch) pair.
// Implementations serialize access per key for the lifetime of the
// transaction so a decrease can never drive a balance negative.
type StockLedger interface {
	// Balance returns the current quantity, zero for an unknown pair
	Balance(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID) (decimal.Decimal, error)

	// Decrease fails with entities.ErrInsufficientStock when quantity > balance
	Decrease(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal) error

	Increase(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal) error

	// ListBalances returns every balance of a branch, or of all branches when branch is empty
	ListBalances(ctx context.Context, branch entities.BranchID) ([]*entities.StockBalance, error)
}
