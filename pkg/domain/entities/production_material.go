package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionMaterial tracks one raw material of a production order.
//
// Invariants after every operation:
//
//	consumed + lost <= allocated <= needed
type ProductionMaterial struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_material_order_part" json:"order_id"`
	PartNumber PartNumber      `gorm:"size:64;not null;uniqueIndex:idx_material_order_part" json:"part_number"`
	Needed     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"needed"`
	Allocated  decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"allocated"`
	Consumed   decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"consumed"`
	Lost       decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"lost"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (ProductionMaterial) TableName() string {
	return "production_materials"
}

// AutoAllocation is the quantity an unconstrained allocate() reserves:
// whatever is still needed, capped by the available balance.
func (m *ProductionMaterial) AutoAllocation(available decimal.Decimal) decimal.Decimal {
	required := m.Unallocated()
	if available.LessThan(required) {
		required = available
	}
	if required.IsNegative() {
		return decimal.Zero
	}
	return required
}

// CheckAllocation validates an explicit allocation request
func (m *ProductionMaterial) CheckAllocation(quantity, available decimal.Decimal) error {
	if err := RequirePositive(quantity); err != nil {
		return err
	}
	if quantity.GreaterThan(available) {
		return fmt.Errorf("%w: cannot allocate %s of %s, only %s available",
			ErrInsufficientStock, quantity, m.PartNumber, available)
	}
	if m.Allocated.Add(quantity).GreaterThan(m.Needed) {
		return fmt.Errorf("%w: cannot allocate %s of %s, only %s still needed",
			ErrPrecondition, quantity, m.PartNumber, m.Unallocated())
	}
	return nil
}

// CheckConsume validates a consumption request against needed - lost
func (m *ProductionMaterial) CheckConsume(quantity decimal.Decimal) error {
	if err := RequirePositive(quantity); err != nil {
		return err
	}
	if m.Consumed.Add(quantity).GreaterThan(m.Needed.Sub(m.Lost)) {
		return fmt.Errorf("%w: cannot consume %s of %s (needed %s, consumed %s, lost %s)",
			ErrOverConsumption, quantity, m.PartNumber, m.Needed, m.Consumed, m.Lost)
	}
	return nil
}

// CheckLost validates a loss request against needed - consumed
func (m *ProductionMaterial) CheckLost(quantity decimal.Decimal) error {
	if err := RequirePositive(quantity); err != nil {
		return err
	}
	if m.Lost.Add(quantity).GreaterThan(m.Needed.Sub(m.Consumed)) {
		return fmt.Errorf("%w: cannot lose %s of %s (needed %s, consumed %s, lost %s)",
			ErrOverLoss, quantity, m.PartNumber, m.Needed, m.Consumed, m.Lost)
	}
	return nil
}

// TopUp returns how much more must be allocated before quantity can be
// consumed or lost. Zero when the reservation already covers it.
func (m *ProductionMaterial) TopUp(quantity decimal.Decimal) decimal.Decimal {
	required := m.Consumed.Add(m.Lost).Add(quantity)
	if required.GreaterThan(m.Allocated) {
		return required.Sub(m.Allocated)
	}
	return decimal.Zero
}

func (m *ProductionMaterial) RecordAllocated(quantity decimal.Decimal) {
	m.Allocated = m.Allocated.Add(quantity)
}

func (m *ProductionMaterial) RecordConsumed(quantity decimal.Decimal) {
	m.Consumed = m.Consumed.Add(quantity)
}

func (m *ProductionMaterial) RecordLost(quantity decimal.Decimal) {
	m.Lost = m.Lost.Add(quantity)
}

// Unallocated is needed - allocated, never negative
func (m *ProductionMaterial) Unallocated() decimal.Decimal {
	rest := m.Needed.Sub(m.Allocated)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Remaining is the quantity that can still be consumed or lost
func (m *ProductionMaterial) Remaining() decimal.Decimal {
	return m.Needed.Sub(m.Consumed).Sub(m.Lost)
}
