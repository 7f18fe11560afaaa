package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/production/pkg/domain/entities"
)

type productRepository struct {
	db *gorm.DB
}

func (r productRepository) GetProduct(ctx context.Context, partNumber entities.PartNumber) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Where("part_number = ?", partNumber).Take(&product).Error; err != nil {
		return nil, notFound(err, "product %s", partNumber)
	}
	return &product, nil
}

func (r productRepository) GetStorable(ctx context.Context, partNumber entities.PartNumber) (*entities.Product, error) {
	product, err := r.GetProduct(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	if !product.IsStorable() {
		return nil, fmt.Errorf("%w: %s is a %s", entities.ErrNotStorable, partNumber, product.Kind)
	}
	return product, nil
}

func (r productRepository) GetComponents(ctx context.Context, partNumber entities.PartNumber) ([]*entities.BOMLine, error) {
	var lines []*entities.BOMLine
	err := r.db.WithContext(ctx).
		Where("parent_pn = ?", partNumber).
		Order("find_number, id").
		Find(&lines).Error
	return lines, err
}

func (r productRepository) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	var products []*entities.Product
	err := r.db.WithContext(ctx).Order("part_number").Find(&products).Error
	return products, err
}

func (r productRepository) GetAllBOMLines(ctx context.Context) ([]*entities.BOMLine, error) {
	var lines []*entities.BOMLine
	err := r.db.WithContext(ctx).Order("parent_pn, find_number, id").Find(&lines).Error
	return lines, err
}

func (r productRepository) SaveProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r productRepository) SaveBOMLines(ctx context.Context, lines []*entities.BOMLine) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "parent_pn"}, {Name: "child_pn"}},
		DoUpdates: clause.AssignmentColumns([]string{"qty_per", "find_number"}),
	}).Create(&lines).Error
}
