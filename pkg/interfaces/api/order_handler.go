package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/application/dto"
	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
	"github.com/vsinha/production/pkg/interfaces/cli/output"
)

type OrderHandler struct {
	svc *production.Service
}

func NewOrderHandler(svc *production.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type CreateOrderInput struct {
	Branch            string     `json:"branch" binding:"required"`
	Description       string     `json:"description"`
	Responsible       string     `json:"responsible"`
	ExpectedStartDate *time.Time `json:"expected_start_date"`
}

// LineInput adds an item, material or service. Quantity defaults to 1.
type LineInput struct {
	PartNumber string           `json:"part_number" binding:"required"`
	Quantity   *decimal.Decimal `json:"quantity"`
}

// QuantityInput is the body of movement actions. Allocate treats a missing
// quantity as "as much as is needed and available".
type QuantityInput struct {
	Quantity *decimal.Decimal `json:"quantity"`
}

// ListOrders GET /orders?status=&branch=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter repositories.OrderFilter
	if s := c.Query("status"); s != "" {
		status, err := entities.ParseOrderStatus(s)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		filter.Status = &status
	}
	filter.Branch = entities.BranchID(c.Query("branch"))

	orders, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": orders, "total": len(orders)})
}

// CreateOrder POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), production.OrderRequest{
		Branch:            entities.BranchID(input.Branch),
		Description:       input.Description,
		Responsible:       input.Responsible,
		ExpectedStartDate: input.ExpectedStartDate,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, order)
}

// GetOrder GET /orders/:id?history=true
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	report, err := h.svc.OrderReport(c.Request.Context(), id, c.Query("history") == "true")
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, report)
}

// ExportOrder GET /orders/:id/export
func (h *OrderHandler) ExportOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	report, err := h.svc.OrderReport(c.Request.Context(), id, true)
	if err != nil {
		Fail(c, err)
		return
	}
	f, err := output.NewWorkbook(&dto.ProductionReport{Orders: []*dto.OrderReport{report}})
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=production_order_%s.xlsx", report.Number))
	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}

// DeleteOrder DELETE /orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// History GET /orders/:id/history
func (h *OrderHandler) History(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	entries, err := h.svc.History(c.Request.Context(), repositories.HistoryFilter{OrderID: id})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": entries})
}

// AddItem POST /orders/:id/items
func (h *OrderHandler) AddItem(c *gin.Context) {
	id, input, ok := lineInput(c)
	if !ok {
		return
	}
	item, err := h.svc.AddItem(c.Request.Context(), id, entities.PartNumber(input.PartNumber), quantityOrOne(input.Quantity))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, item)
}

// RemoveItem DELETE /orders/:id/items/:lineId
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, lineID, ok := lineIDs(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), id, lineID); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// AddMaterial POST /orders/:id/materials
func (h *OrderHandler) AddMaterial(c *gin.Context) {
	id, input, ok := lineInput(c)
	if !ok {
		return
	}
	material, err := h.svc.AddMaterial(c.Request.Context(), id, entities.PartNumber(input.PartNumber), quantityOrOne(input.Quantity))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, material)
}

// AddService POST /orders/:id/services
func (h *OrderHandler) AddService(c *gin.Context) {
	id, input, ok := lineInput(c)
	if !ok {
		return
	}
	service, err := h.svc.AddService(c.Request.Context(), id, entities.PartNumber(input.PartNumber), quantityOrOne(input.Quantity))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, service)
}

// RemoveService DELETE /orders/:id/services/:lineId
func (h *OrderHandler) RemoveService(c *gin.Context) {
	id, lineID, ok := lineIDs(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveService(c.Request.Context(), id, lineID); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// Plan POST /orders/:id/plan
func (h *OrderHandler) Plan(c *gin.Context) {
	h.transition(c, h.svc.PlanMaterials)
}

// Wait POST /orders/:id/wait
func (h *OrderHandler) Wait(c *gin.Context) {
	h.transition(c, h.svc.SetWaiting)
}

// Start POST /orders/:id/start
func (h *OrderHandler) Start(c *gin.Context) {
	h.transition(c, h.svc.StartProduction)
}

type orderAction func(ctx context.Context, orderID uuid.UUID) (*entities.ProductionOrder, error)

func (h *OrderHandler) transition(c *gin.Context, fn orderAction) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// Finalize POST /orders/:id/finalize
func (h *OrderHandler) Finalize(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	closed, err := h.svc.TryFinalize(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"closed": closed})
}

// Produce POST /orders/:id/items/:lineId/produce
func (h *OrderHandler) Produce(c *gin.Context) {
	h.itemMovement(c, h.svc.Produce)
}

// LoseItem POST /orders/:id/items/:lineId/lose
func (h *OrderHandler) LoseItem(c *gin.Context) {
	h.itemMovement(c, h.svc.LoseItem)
}

type itemMovementFunc func(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*entities.ProductionOrder, error)

func (h *OrderHandler) itemMovement(c *gin.Context, fn itemMovementFunc) {
	id, lineID, ok := lineIDs(c)
	if !ok {
		return
	}
	quantity, ok := requiredQuantity(c)
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), id, lineID, quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, order)
}

// Allocate POST /orders/:id/materials/:lineId/allocate
func (h *OrderHandler) Allocate(c *gin.Context) {
	id, lineID, ok := lineIDs(c)
	if !ok {
		return
	}
	var input QuantityInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	material, err := h.svc.Allocate(c.Request.Context(), id, lineID, input.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, material)
}

// MaterialStock GET /orders/:id/materials/:lineId/stock
func (h *OrderHandler) MaterialStock(c *gin.Context) {
	id, lineID, ok := lineIDs(c)
	if !ok {
		return
	}
	balance, err := h.svc.MaterialStock(c.Request.Context(), id, lineID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"material_id": lineID, "stock_quantity": balance})
}

// Consume POST /orders/:id/materials/:lineId/consume
func (h *OrderHandler) Consume(c *gin.Context) {
	h.materialMovement(c, h.svc.Consume)
}

// LoseMaterial POST /orders/:id/materials/:lineId/lose
func (h *OrderHandler) LoseMaterial(c *gin.Context) {
	h.materialMovement(c, h.svc.LoseMaterial)
}

type materialMovementFunc func(ctx context.Context, orderID, materialID uuid.UUID, quantity decimal.Decimal) (*entities.ProductionMaterial, error)

func (h *OrderHandler) materialMovement(c *gin.Context, fn materialMovementFunc) {
	id, lineID, ok := lineIDs(c)
	if !ok {
		return
	}
	quantity, ok := requiredQuantity(c)
	if !ok {
		return
	}
	material, err := fn(c.Request.Context(), id, lineID, quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, material)
}

func orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid order id: "+c.Param("id"))
		return uuid.Nil, false
	}
	return id, true
}

func lineIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := orderID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		BadRequest(c, "invalid line id: "+c.Param("lineId"))
		return uuid.Nil, uuid.Nil, false
	}
	return id, lineID, true
}

func lineInput(c *gin.Context) (uuid.UUID, LineInput, bool) {
	var input LineInput
	id, ok := orderID(c)
	if !ok {
		return uuid.Nil, input, false
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return uuid.Nil, input, false
	}
	return id, input, true
}

func requiredQuantity(c *gin.Context) (decimal.Decimal, bool) {
	var input QuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return decimal.Zero, false
	}
	if input.Quantity == nil {
		BadRequest(c, "quantity is required")
		return decimal.Zero, false
	}
	return *input.Quantity, true
}

func quantityOrOne(q *decimal.Decimal) decimal.Decimal {
	if q == nil {
		return decimal.NewFromInt(1)
	}
	return *q
}
