package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionItem is a finished product line of a production order.
// produced + lost never exceeds Quantity.
type ProductionItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	PartNumber PartNumber      `gorm:"size:64;not null" json:"part_number"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity"`
	Produced   decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"produced"`
	Lost       decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"lost"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (ProductionItem) TableName() string {
	return "production_items"
}

// CanProduce reports whether quantity more units fit in the target once
// produced and lost units are counted.
func (i *ProductionItem) CanProduce(quantity decimal.Decimal) bool {
	return i.Produced.Add(quantity).Add(i.Lost).LessThanOrEqual(i.Quantity)
}

// IsCompletelyProduced is true once every unit is either produced or lost
func (i *ProductionItem) IsCompletelyProduced() bool {
	return i.Quantity.Equal(i.Produced.Add(i.Lost))
}

// Remaining is the number of units not yet produced or lost
func (i *ProductionItem) Remaining() decimal.Decimal {
	return i.Quantity.Sub(i.Produced).Sub(i.Lost)
}

// CheckProduce validates a produce request
func (i *ProductionItem) CheckProduce(quantity decimal.Decimal) error {
	if err := RequirePositive(quantity); err != nil {
		return err
	}
	if !i.CanProduce(quantity) {
		return fmt.Errorf("%w: cannot produce %s of %s, only %s remaining",
			ErrPrecondition, quantity, i.PartNumber, i.Remaining())
	}
	return nil
}

// CheckLost validates a loss request against quantity - produced
func (i *ProductionItem) CheckLost(quantity decimal.Decimal) error {
	if err := RequirePositive(quantity); err != nil {
		return err
	}
	if i.Lost.Add(quantity).GreaterThan(i.Quantity.Sub(i.Produced)) {
		return fmt.Errorf("%w: cannot lose more %s than the total production quantity (quantity %s, produced %s, lost %s, requested %s)",
			ErrOverLoss, i.PartNumber, i.Quantity, i.Produced, i.Lost, quantity)
	}
	return nil
}

func (i *ProductionItem) RecordProduced(quantity decimal.Decimal) {
	i.Produced = i.Produced.Add(quantity)
}

func (i *ProductionItem) RecordLost(quantity decimal.Decimal) {
	i.Lost = i.Lost.Add(quantity)
}
