package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vsinha/production/pkg/domain/entities"
)

type stockLedger struct {
	tx *tx
}

func (l stockLedger) Balance(_ context.Context, partNumber entities.PartNumber, branch entities.BranchID) (decimal.Decimal, error) {
	balance, ok := l.tx.store.stock[stockKey{partNumber, branch}]
	if !ok {
		return decimal.Zero, nil
	}
	return balance.Quantity, nil
}

func (l stockLedger) Decrease(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal) error {
	if err := entities.RequirePositive(quantity); err != nil {
		return err
	}
	balance, _ := l.Balance(ctx, partNumber, branch)
	if quantity.GreaterThan(balance) {
		return fmt.Errorf("%w: cannot take %s of %s from branch %s, balance is %s",
			entities.ErrInsufficientStock, quantity, partNumber, branch, balance)
	}
	l.tx.setStock(stockKey{partNumber, branch}, balance.Sub(quantity))
	return nil
}

func (l stockLedger) Increase(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal) error {
	if err := entities.RequirePositive(quantity); err != nil {
		return err
	}
	balance, _ := l.Balance(ctx, partNumber, branch)
	l.tx.setStock(stockKey{partNumber, branch}, balance.Add(quantity))
	return nil
}

func (l stockLedger) ListBalances(_ context.Context, branch entities.BranchID) ([]*entities.StockBalance, error) {
	var balances []*entities.StockBalance
	for key, balance := range l.tx.store.stock {
		if branch != "" && key.branch != branch {
			continue
		}
		balance := balance
		balances = append(balances, &balance)
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].BranchID != balances[j].BranchID {
			return balances[i].BranchID < balances[j].BranchID
		}
		return balances[i].PartNumber < balances[j].PartNumber
	})
	return balances, nil
}
