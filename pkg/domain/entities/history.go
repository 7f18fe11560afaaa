package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryKind classifies an audit record
type HistoryKind int

const (
	HistoryProduced HistoryKind = iota
	HistoryConsumed
	HistoryLost
)

// String method for HistoryKind enum
func (k HistoryKind) String() string {
	switch k {
	case HistoryProduced:
		return "Produced"
	case HistoryConsumed:
		return "Consumed"
	case HistoryLost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// HistoryEntry is an append-only record of a production movement. SubjectID
// is the item or material row the movement was booked against.
type HistoryEntry struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Kind       HistoryKind     `gorm:"not null;index" json:"kind"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	SubjectID  uuid.UUID       `gorm:"type:uuid;not null" json:"subject_id"`
	BranchID   BranchID        `gorm:"size:64;not null" json:"branch_id"`
	PartNumber PartNumber      `gorm:"size:64;not null;index" json:"part_number"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity"`
	RecordedAt time.Time       `gorm:"not null" json:"recorded_at"`
}

func (HistoryEntry) TableName() string {
	return "production_history"
}

// NewProducedEntry records finished goods coming off an item
func NewProducedEntry(order *ProductionOrder, item *ProductionItem, quantity decimal.Decimal, at time.Time) *HistoryEntry {
	return newHistoryEntry(HistoryProduced, order, item.ID, item.PartNumber, quantity, at)
}

// NewConsumedEntry records raw material drawn down from a material line
func NewConsumedEntry(order *ProductionOrder, material *ProductionMaterial, quantity decimal.Decimal, at time.Time) *HistoryEntry {
	return newHistoryEntry(HistoryConsumed, order, material.ID, material.PartNumber, quantity, at)
}

// NewMaterialLostEntry records raw material written off
func NewMaterialLostEntry(order *ProductionOrder, material *ProductionMaterial, quantity decimal.Decimal, at time.Time) *HistoryEntry {
	return newHistoryEntry(HistoryLost, order, material.ID, material.PartNumber, quantity, at)
}

// NewItemLostEntry records finished units lost during production
func NewItemLostEntry(order *ProductionOrder, item *ProductionItem, quantity decimal.Decimal, at time.Time) *HistoryEntry {
	return newHistoryEntry(HistoryLost, order, item.ID, item.PartNumber, quantity, at)
}

func newHistoryEntry(kind HistoryKind, order *ProductionOrder, subject uuid.UUID, pn PartNumber, quantity decimal.Decimal, at time.Time) *HistoryEntry {
	return &HistoryEntry{
		ID:         uuid.New(),
		Kind:       kind,
		OrderID:    order.ID,
		SubjectID:  subject,
		BranchID:   order.BranchID,
		PartNumber: pn,
		Quantity:   quantity,
		RecordedAt: at,
	}
}
