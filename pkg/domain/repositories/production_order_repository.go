package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/vsinha/production/pkg/domain/entities"
)

// OrderFilter narrows ListOrders. Zero values match everything.
type OrderFilter struct {
	Status *entities.OrderStatus
	Branch entities.BranchID
}

// ProductionOrderRepository persists production orders together with their
// items, materials and services.
type ProductionOrderRepository interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *entities.ProductionOrder) error

	// Get loads an order with all of its lines. Inside a transaction the
	// order is held exclusively until commit.
	Get(ctx context.Context, id uuid.UUID) (*entities.ProductionOrder, error)
	GetByNumber(ctx context.Context, number int64) (*entities.ProductionOrder, error)
	List(ctx context.Context, filter OrderFilter) ([]*entities.ProductionOrder, error)

	// Save writes the order header and upserts every line it holds
	Save(ctx context.Context, order *entities.ProductionOrder) error

	DeleteItem(ctx context.Context, item *entities.ProductionItem) error
	DeleteService(ctx context.Context, service *entities.ProductionService) error

	// Delete removes the order and, by cascade, all of its lines
	Delete(ctx context.Context, id uuid.UUID) error
}
