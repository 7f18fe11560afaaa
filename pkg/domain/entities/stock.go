package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance is the on-hand quantity of a product at a branch
type StockBalance struct {
	PartNumber PartNumber      `gorm:"primaryKey;size:64" json:"part_number"`
	BranchID   BranchID        `gorm:"primaryKey;size:64" json:"branch_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (StockBalance) TableName() string {
	return "stock_balances"
}
