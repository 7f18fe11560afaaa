package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/domain/entities"
)

// ProductionReport is the outcome of running a set of production orders
type ProductionReport struct {
	Orders   []*OrderReport          `json:"orders"`
	Balances []*entities.StockBalance `json:"balances"`
	Failures []ActionFailure          `json:"failures,omitempty"`
	Elapsed  time.Duration            `json:"elapsed"`
}

// OrderReport is a flattened view of one order with the stock each of its
// materials can still draw from
type OrderReport struct {
	ID          uuid.UUID         `json:"id"`
	Number      string            `json:"number"`
	Status      string            `json:"status"`
	Branch      entities.BranchID `json:"branch"`
	Description string            `json:"description"`
	Responsible string            `json:"responsible,omitempty"`
	OpenDate    time.Time         `json:"open_date"`
	StartDate   *time.Time        `json:"start_date,omitempty"`
	CloseDate   *time.Time        `json:"close_date,omitempty"`

	Items     []ItemLine     `json:"items"`
	Materials []MaterialLine `json:"materials"`
	Services  []ServiceLine  `json:"services"`
	History   []HistoryLine  `json:"history,omitempty"`
}

type ItemLine struct {
	ID         uuid.UUID           `json:"id"`
	PartNumber entities.PartNumber `json:"part_number"`
	Quantity   decimal.Decimal     `json:"quantity"`
	Produced   decimal.Decimal     `json:"produced"`
	Lost       decimal.Decimal     `json:"lost"`
	Remaining  decimal.Decimal     `json:"remaining"`
	Complete   bool                `json:"complete"`
}

type MaterialLine struct {
	ID            uuid.UUID           `json:"id"`
	PartNumber    entities.PartNumber `json:"part_number"`
	Needed        decimal.Decimal     `json:"needed"`
	Allocated     decimal.Decimal     `json:"allocated"`
	Consumed      decimal.Decimal     `json:"consumed"`
	Lost          decimal.Decimal     `json:"lost"`
	StockQuantity decimal.Decimal     `json:"stock_quantity"`
}

type ServiceLine struct {
	ID         uuid.UUID           `json:"id"`
	PartNumber entities.PartNumber `json:"part_number"`
	Quantity   decimal.Decimal     `json:"quantity"`
}

type HistoryLine struct {
	Kind       string              `json:"kind"`
	PartNumber entities.PartNumber `json:"part_number"`
	Quantity   decimal.Decimal     `json:"quantity"`
	RecordedAt time.Time           `json:"recorded_at"`
}

// ActionFailure is a scenario step that was rejected. The order is left as
// it was before the step.
type ActionFailure struct {
	OrderRef string `json:"order_ref"`
	Step     int    `json:"step"`
	Action   string `json:"action"`
	Target   string `json:"target,omitempty"`
	Error    string `json:"error"`
}

// NewOrderReport flattens order. stock maps material part numbers to the
// balance at the order's branch; history may be nil.
func NewOrderReport(order *entities.ProductionOrder, stock map[entities.PartNumber]decimal.Decimal, history []*entities.HistoryEntry) *OrderReport {
	report := &OrderReport{
		ID:          order.ID,
		Number:      order.OrderNumber(),
		Status:      order.StatusString(),
		Branch:      order.BranchID,
		Description: order.Description,
		Responsible: order.ResponsibleName(),
		OpenDate:    order.OpenDate,
		StartDate:   order.StartDate,
		CloseDate:   order.CloseDate,
		Items:       make([]ItemLine, 0, len(order.Items)),
		Materials:   make([]MaterialLine, 0, len(order.Materials)),
		Services:    make([]ServiceLine, 0, len(order.Services)),
	}
	for _, item := range order.Items {
		report.Items = append(report.Items, ItemLine{
			ID:         item.ID,
			PartNumber: item.PartNumber,
			Quantity:   item.Quantity,
			Produced:   item.Produced,
			Lost:       item.Lost,
			Remaining:  item.Remaining(),
			Complete:   item.IsCompletelyProduced(),
		})
	}
	for _, m := range order.Materials {
		report.Materials = append(report.Materials, MaterialLine{
			ID:            m.ID,
			PartNumber:    m.PartNumber,
			Needed:        m.Needed,
			Allocated:     m.Allocated,
			Consumed:      m.Consumed,
			Lost:          m.Lost,
			StockQuantity: stock[m.PartNumber],
		})
	}
	for _, svc := range order.Services {
		report.Services = append(report.Services, ServiceLine{
			ID:         svc.ID,
			PartNumber: svc.PartNumber,
			Quantity:   svc.Quantity,
		})
	}
	for _, h := range history {
		report.History = append(report.History, HistoryLine{
			Kind:       h.Kind.String(),
			PartNumber: h.PartNumber,
			Quantity:   h.Quantity,
			RecordedAt: h.RecordedAt,
		})
	}
	return report
}
