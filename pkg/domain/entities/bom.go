package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BOMLine is one component of a product's bill of materials: QtyPer units of
// ChildPN are consumed for every unit of ParentPN produced.
type BOMLine struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	ParentPN   PartNumber      `gorm:"column:parent_pn;size:64;not null;uniqueIndex:idx_bom_parent_child" json:"parent_pn"`
	ChildPN    PartNumber      `gorm:"column:child_pn;size:64;not null;uniqueIndex:idx_bom_parent_child" json:"child_pn"`
	QtyPer     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"qty_per"`
	FindNumber int             `gorm:"not null" json:"find_number"`
}

func (BOMLine) TableName() string {
	return "bom_lines"
}

// NewBOMLine creates a validated BOMLine
func NewBOMLine(parentPN, childPN PartNumber, qtyPer decimal.Decimal, findNumber int) (*BOMLine, error) {
	if string(parentPN) == "" {
		return nil, fmt.Errorf("parent part number cannot be empty")
	}
	if string(childPN) == "" {
		return nil, fmt.Errorf("child part number cannot be empty")
	}
	if parentPN == childPN {
		return nil, fmt.Errorf("parent and child part numbers cannot be the same: %s", parentPN)
	}
	if !qtyPer.IsPositive() {
		return nil, fmt.Errorf("quantity per must be positive, got %s", qtyPer)
	}
	if findNumber <= 0 {
		return nil, fmt.Errorf("find number must be positive, got %d", findNumber)
	}

	return &BOMLine{
		ParentPN:   parentPN,
		ChildPN:    childPN,
		QtyPer:     qtyPer,
		FindNumber: findNumber,
	}, nil
}

// Requirement returns how much of the child is needed to build quantity parents
func (l *BOMLine) Requirement(quantity decimal.Decimal) decimal.Decimal {
	return quantity.Mul(l.QtyPer)
}
