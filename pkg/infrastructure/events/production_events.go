package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/production/pkg/domain/entities"
)

const (
	OrderCreatedEvent = "order.created"
	OrderWaitingEvent = "order.waiting"
	OrderStartedEvent = "order.started"
	OrderClosedEvent  = "order.closed"
	OrderDeletedEvent = "order.deleted"

	ItemProducedEvent = "item.produced"
	ItemLostEvent     = "item.lost"

	MaterialAllocatedEvent = "material.allocated"
	MaterialConsumedEvent  = "material.consumed"
	MaterialLostEvent      = "material.lost"

	StockReceivedEvent = "stock.received"
)

// ProductionEventTypes lists every event type the production service emits
var ProductionEventTypes = []string{
	OrderCreatedEvent, OrderWaitingEvent, OrderStartedEvent, OrderClosedEvent, OrderDeletedEvent,
	ItemProducedEvent, ItemLostEvent,
	MaterialAllocatedEvent, MaterialConsumedEvent, MaterialLostEvent,
	StockReceivedEvent,
}

// OrderStreamID is the stream every event of an order is appended to
func OrderStreamID(orderID uuid.UUID) string {
	return "order-" + orderID.String()
}

// StockStreamID is the stream of a (product, branch) balance
func StockStreamID(pn entities.PartNumber, branch entities.BranchID) string {
	return "stock-" + string(branch) + "-" + string(pn)
}

type OrderTransitioned struct {
	OrderID uuid.UUID            `json:"order_id"`
	Number  string               `json:"number"`
	From    entities.OrderStatus `json:"from"`
	To      entities.OrderStatus `json:"to"`
}

type ItemMovement struct {
	OrderID    uuid.UUID           `json:"order_id"`
	ItemID     uuid.UUID           `json:"item_id"`
	PartNumber entities.PartNumber `json:"part_number"`
	Quantity   decimal.Decimal     `json:"quantity"`
}

type MaterialMovement struct {
	OrderID    uuid.UUID           `json:"order_id"`
	MaterialID uuid.UUID           `json:"material_id"`
	PartNumber entities.PartNumber `json:"part_number"`
	Quantity   decimal.Decimal     `json:"quantity"`
}

type StockReceived struct {
	PartNumber entities.PartNumber `json:"part_number"`
	BranchID   entities.BranchID   `json:"branch_id"`
	Quantity   decimal.Decimal     `json:"quantity"`
}

// NewOrderTransitioned records order moving from one status to its current one
func NewOrderTransitioned(eventType string, order *entities.ProductionOrder, from entities.OrderStatus, at time.Time) Event {
	return New(eventType, OrderStreamID(order.ID), OrderTransitioned{
		OrderID: order.ID,
		Number:  order.OrderNumber(),
		From:    from,
		To:      order.Status,
	}, at)
}

func NewItemMovement(eventType string, item *entities.ProductionItem, quantity decimal.Decimal, at time.Time) Event {
	return New(eventType, OrderStreamID(item.OrderID), ItemMovement{
		OrderID:    item.OrderID,
		ItemID:     item.ID,
		PartNumber: item.PartNumber,
		Quantity:   quantity,
	}, at)
}

func NewMaterialMovement(eventType string, material *entities.ProductionMaterial, quantity decimal.Decimal, at time.Time) Event {
	return New(eventType, OrderStreamID(material.OrderID), MaterialMovement{
		OrderID:    material.OrderID,
		MaterialID: material.ID,
		PartNumber: material.PartNumber,
		Quantity:   quantity,
	}, at)
}

func NewStockReceived(pn entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal, at time.Time) Event {
	return New(StockReceivedEvent, StockStreamID(pn, branch), StockReceived{
		PartNumber: pn,
		BranchID:   branch,
		Quantity:   quantity,
	}, at)
}
