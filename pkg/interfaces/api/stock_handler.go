package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/entities"
)

type StockHandler struct {
	svc *production.Service
}

func NewStockHandler(svc *production.Service) *StockHandler {
	return &StockHandler{svc: svc}
}

type ReceiveStockInput struct {
	PartNumber string          `json:"part_number" binding:"required"`
	Branch     string          `json:"branch" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ListBalances GET /stock?branch=
func (h *StockHandler) ListBalances(c *gin.Context) {
	balances, err := h.svc.ListBalances(c.Request.Context(), entities.BranchID(c.Query("branch")))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": balances})
}

// Balance GET /stock/:product/:branch
func (h *StockHandler) Balance(c *gin.Context) {
	pn := entities.PartNumber(c.Param("product"))
	branch := entities.BranchID(c.Param("branch"))
	balance, err := h.svc.Balance(c.Request.Context(), pn, branch)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entities.StockBalance{PartNumber: pn, BranchID: branch, Quantity: balance})
}

// Receive POST /stock/receive
func (h *StockHandler) Receive(c *gin.Context) {
	var input ReceiveStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pn := entities.PartNumber(input.PartNumber)
	branch := entities.BranchID(input.Branch)
	if err := h.svc.ReceiveStock(c.Request.Context(), pn, branch, input.Quantity); err != nil {
		Fail(c, err)
		return
	}
	balance, err := h.svc.Balance(c.Request.Context(), pn, branch)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entities.StockBalance{PartNumber: pn, BranchID: branch, Quantity: balance})
}

// ListProducts GET /products
func (h *StockHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": products})
}
