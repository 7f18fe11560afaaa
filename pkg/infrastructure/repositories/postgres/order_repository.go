package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

type orderRepository struct {
	db *gorm.DB
}

func byCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at, id")
}

func (r orderRepository) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", byCreation).
		Preload("Materials", byCreation).
		Preload("Services", byCreation)
}

func (r orderRepository) NextNumber(ctx context.Context) (int64, error) {
	var number int64
	if err := r.db.WithContext(ctx).Raw("SELECT nextval('" + orderNumberSequence + "')").Scan(&number).Error; err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", orderNumberSequence, err)
	}
	return number, nil
}

func (r orderRepository) Create(ctx context.Context, order *entities.ProductionOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r orderRepository) Get(ctx context.Context, id uuid.UUID) (*entities.ProductionOrder, error) {
	var order entities.ProductionOrder
	err := r.withLines(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&order).Error
	if err != nil {
		return nil, notFound(err, "production order %s", id)
	}
	return &order, nil
}

func (r orderRepository) GetByNumber(ctx context.Context, number int64) (*entities.ProductionOrder, error) {
	var order entities.ProductionOrder
	err := r.withLines(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("number = ?", number).
		Take(&order).Error
	if err != nil {
		return nil, notFound(err, "production order %04d", number)
	}
	return &order, nil
}

func (r orderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]*entities.ProductionOrder, error) {
	query := r.withLines(ctx).Order("number")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Branch != "" {
		query = query.Where("branch_id = ?", filter.Branch)
	}
	var orders []*entities.ProductionOrder
	err := query.Find(&orders).Error
	return orders, err
}

func (r orderRepository) Save(ctx context.Context, order *entities.ProductionOrder) error {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(order)
	return result.Error
}

func (r orderRepository) DeleteItem(ctx context.Context, item *entities.ProductionItem) error {
	return r.deleteLine(ctx, item, item.ID)
}

func (r orderRepository) DeleteService(ctx context.Context, service *entities.ProductionService) error {
	return r.deleteLine(ctx, service, service.ID)
}

func (r orderRepository) deleteLine(ctx context.Context, line interface{}, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(line)
	if result.Error != nil {
		return fmt.Errorf("failed to delete line %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: line %s", entities.ErrNotFound, id)
	}
	return nil
}

func (r orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&entities.ProductionOrder{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete production order %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: production order %s", entities.ErrNotFound, id)
	}
	return nil
}
