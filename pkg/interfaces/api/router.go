package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/application/services/production"
)

// NewRouter builds the gin engine serving /api/v1. mode is a gin mode
// ("debug", "release" or "test").
func NewRouter(svc *production.Service, logger *zap.Logger, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		Success(c, gin.H{"status": "ok"})
	})

	RegisterRoutes(router.Group("/api/v1"), svc)
	return router
}

func RegisterRoutes(v1 *gin.RouterGroup, svc *production.Service) {
	orders := NewOrderHandler(svc)
	stock := NewStockHandler(svc)

	o := v1.Group("/orders")
	{
		o.GET("", orders.ListOrders)
		o.POST("", orders.CreateOrder)
		o.GET("/:id", orders.GetOrder)
		o.DELETE("/:id", orders.DeleteOrder)
		o.GET("/:id/export", orders.ExportOrder)
		o.GET("/:id/history", orders.History)

		o.POST("/:id/items", orders.AddItem)
		o.DELETE("/:id/items/:lineId", orders.RemoveItem)
		o.POST("/:id/items/:lineId/produce", orders.Produce)
		o.POST("/:id/items/:lineId/lose", orders.LoseItem)

		o.POST("/:id/materials", orders.AddMaterial)
		o.GET("/:id/materials/:lineId/stock", orders.MaterialStock)
		o.POST("/:id/materials/:lineId/allocate", orders.Allocate)
		o.POST("/:id/materials/:lineId/consume", orders.Consume)
		o.POST("/:id/materials/:lineId/lose", orders.LoseMaterial)

		o.POST("/:id/services", orders.AddService)
		o.DELETE("/:id/services/:lineId", orders.RemoveService)

		o.POST("/:id/plan", orders.Plan)
		o.POST("/:id/wait", orders.Wait)
		o.POST("/:id/start", orders.Start)
		o.POST("/:id/finalize", orders.Finalize)
	}

	v1.GET("/stock", stock.ListBalances)
	v1.GET("/stock/:product/:branch", stock.Balance)
	v1.POST("/stock/receive", stock.Receive)
	v1.GET("/products", stock.ListProducts)
}
