package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

type orderRepository struct {
	tx *tx
}

func (r orderRepository) NextNumber(_ context.Context) (int64, error) {
	s := r.tx.store
	previous := s.nextNumber
	r.tx.record(func() { s.nextNumber = previous })
	s.nextNumber++
	return s.nextNumber, nil
}

func (r orderRepository) Create(_ context.Context, order *entities.ProductionOrder) error {
	s := r.tx.store
	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	for _, other := range s.orders {
		if other.Number == order.Number {
			return fmt.Errorf("order number %s already in use", order.OrderNumber())
		}
	}
	r.stamp(order)
	r.put(order)
	return nil
}

func (r orderRepository) Get(_ context.Context, id uuid.UUID) (*entities.ProductionOrder, error) {
	order, ok := r.tx.store.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: production order %s", entities.ErrNotFound, id)
	}
	return cloneOrder(order), nil
}

func (r orderRepository) GetByNumber(_ context.Context, number int64) (*entities.ProductionOrder, error) {
	for _, order := range r.tx.store.orders {
		if order.Number == number {
			return cloneOrder(order), nil
		}
	}
	return nil, fmt.Errorf("%w: production order %04d", entities.ErrNotFound, number)
}

func (r orderRepository) List(_ context.Context, filter repositories.OrderFilter) ([]*entities.ProductionOrder, error) {
	var orders []*entities.ProductionOrder
	for _, order := range r.tx.store.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.Branch != "" && order.BranchID != filter.Branch {
			continue
		}
		orders = append(orders, cloneOrder(order))
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Number < orders[j].Number
	})
	return orders, nil
}

func (r orderRepository) Save(_ context.Context, order *entities.ProductionOrder) error {
	if _, ok := r.tx.store.orders[order.ID]; !ok {
		return fmt.Errorf("%w: production order %s", entities.ErrNotFound, order.ID)
	}
	r.stamp(order)
	r.put(order)
	return nil
}

func (r orderRepository) DeleteItem(_ context.Context, item *entities.ProductionItem) error {
	stored, ok := r.tx.store.orders[item.OrderID]
	if !ok {
		return fmt.Errorf("%w: production order %s", entities.ErrNotFound, item.OrderID)
	}
	updated := cloneOrder(stored)
	for i, existing := range updated.Items {
		if existing.ID == item.ID {
			updated.Items = append(updated.Items[:i], updated.Items[i+1:]...)
			r.put(updated)
			return nil
		}
	}
	return fmt.Errorf("%w: item %s", entities.ErrNotFound, item.ID)
}

func (r orderRepository) DeleteService(_ context.Context, service *entities.ProductionService) error {
	stored, ok := r.tx.store.orders[service.OrderID]
	if !ok {
		return fmt.Errorf("%w: production order %s", entities.ErrNotFound, service.OrderID)
	}
	updated := cloneOrder(stored)
	for i, existing := range updated.Services {
		if existing.ID == service.ID {
			updated.Services = append(updated.Services[:i], updated.Services[i+1:]...)
			r.put(updated)
			return nil
		}
	}
	return fmt.Errorf("%w: service %s", entities.ErrNotFound, service.ID)
}

func (r orderRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.tx.store
	previous, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: production order %s", entities.ErrNotFound, id)
	}
	r.tx.record(func() { s.orders[id] = previous })
	delete(s.orders, id)
	return nil
}

// put stores a private copy so callers can keep mutating their own
func (r orderRepository) put(order *entities.ProductionOrder) {
	s := r.tx.store
	previous, existed := s.orders[order.ID]
	r.tx.record(func() {
		if existed {
			s.orders[order.ID] = previous
		} else {
			delete(s.orders, order.ID)
		}
	})
	s.orders[order.ID] = cloneOrder(order)
}

// stamp fills CreatedAt/UpdatedAt the way gorm does on save
func (r orderRepository) stamp(order *entities.ProductionOrder) {
	now := r.tx.store.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	for _, item := range order.Items {
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
	}
	for _, material := range order.Materials {
		if material.CreatedAt.IsZero() {
			material.CreatedAt = now
		}
		material.UpdatedAt = now
	}
	for _, service := range order.Services {
		if service.CreatedAt.IsZero() {
			service.CreatedAt = now
		}
		service.UpdatedAt = now
	}
}

func cloneOrder(order *entities.ProductionOrder) *entities.ProductionOrder {
	clone := *order
	clone.Items = make([]*entities.ProductionItem, len(order.Items))
	for i, item := range order.Items {
		copied := *item
		clone.Items[i] = &copied
	}
	clone.Materials = make([]*entities.ProductionMaterial, len(order.Materials))
	for i, material := range order.Materials {
		copied := *material
		clone.Materials[i] = &copied
	}
	clone.Services = make([]*entities.ProductionService, len(order.Services))
	for i, service := range order.Services {
		copied := *service
		clone.Services[i] = &copied
	}
	return &clone
}
