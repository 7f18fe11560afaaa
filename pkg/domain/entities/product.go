package entities

import "fmt"

// PartNumber represents a unique product identifier
type PartNumber string

// BranchID identifies a physical stock-holding location
type BranchID string

// ProductKind tells stock-keeping products apart from services
type ProductKind int

const (
	StorableProduct ProductKind = iota
	ServiceProduct
)

// String method for ProductKind enum
func (k ProductKind) String() string {
	switch k {
	case StorableProduct:
		return "Storable"
	case ServiceProduct:
		return "Service"
	default:
		return "Unknown"
	}
}

// ParseProductKind accepts the String() form of a ProductKind
func ParseProductKind(s string) (ProductKind, error) {
	switch s {
	case "Storable", "storable", "":
		return StorableProduct, nil
	case "Service", "service":
		return ServiceProduct, nil
	default:
		return 0, fmt.Errorf("unknown product kind: %s", s)
	}
}

// Product is a sellable raw material, finished good or service
type Product struct {
	PartNumber    PartNumber  `gorm:"primaryKey;size:64" json:"part_number"`
	Description   string      `gorm:"size:255;not null" json:"description"`
	Kind          ProductKind `gorm:"not null;default:0" json:"kind"`
	UnitOfMeasure string      `gorm:"size:16" json:"unit_of_measure"`
}

func (Product) TableName() string {
	return "products"
}

// NewProduct creates a validated Product
func NewProduct(partNumber PartNumber, description string, kind ProductKind, uom string) (*Product, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}
	if kind != StorableProduct && kind != ServiceProduct {
		return nil, fmt.Errorf("invalid product kind: %d", kind)
	}

	return &Product{
		PartNumber:    partNumber,
		Description:   description,
		Kind:          kind,
		UnitOfMeasure: uom,
	}, nil
}

// IsStorable reports whether the product keeps a stock balance
func (p *Product) IsStorable() bool {
	return p.Kind == StorableProduct
}
