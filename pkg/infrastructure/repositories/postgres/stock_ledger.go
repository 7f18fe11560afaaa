package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/production/pkg/domain/entities"
)

type stockLedger struct {
	db *gorm.DB
}

// Balance locks the row so the caller's later decrease cannot race another
// transaction reading the same balance.
func (l stockLedger) Balance(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID) (decimal.Decimal, error) {
	var balance entities.StockBalance
	err := l.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("part_number = ? AND branch_id = ?", partNumber, branch).
		Take(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read stock of %s at %s: %w", partNumber, branch, err)
	}
	return balance.Quantity, nil
}

// Decrease is a guarded compare-and-decrement: the row only changes while it
// still holds at least quantity.
func (l stockLedger) Decrease(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal) error {
	if err := entities.RequirePositive(quantity); err != nil {
		return err
	}
	result := l.db.WithContext(ctx).
		Model(&entities.StockBalance{}).
		Where("part_number = ? AND branch_id = ? AND quantity >= ?", partNumber, branch, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to decrease stock of %s at %s: %w", partNumber, branch, result.Error)
	}
	if result.RowsAffected == 0 {
		balance, err := l.Balance(ctx, partNumber, branch)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: cannot take %s of %s from branch %s, balance is %s",
			entities.ErrInsufficientStock, quantity, partNumber, branch, balance)
	}
	return nil
}

func (l stockLedger) Increase(ctx context.Context, partNumber entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal) error {
	if err := entities.RequirePositive(quantity); err != nil {
		return err
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "part_number"}, {Name: "branch_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("stock_balances.quantity + EXCLUDED.quantity"),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(&entities.StockBalance{
		PartNumber: partNumber,
		BranchID:   branch,
		Quantity:   quantity,
		UpdatedAt:  time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to increase stock of %s at %s: %w", partNumber, branch, err)
	}
	return nil
}

func (l stockLedger) ListBalances(ctx context.Context, branch entities.BranchID) ([]*entities.StockBalance, error) {
	query := l.db.WithContext(ctx).Order("branch_id, part_number")
	if branch != "" {
		query = query.Where("branch_id = ?", branch)
	}
	var balances []*entities.StockBalance
	err := query.Find(&balances).Error
	return balances, err
}
