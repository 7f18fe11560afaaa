package repositories

import (
	"context"

	"github.com/vsinha/production/pkg/domain/entities"
)

// ProductRepository provides access to product master data and bills of materials
type ProductRepository interface {
	GetProduct(ctx context.Context, partNumber entities.PartNumber) (*entities.Product, error)

	// GetStorable returns the product only when it keeps stock. Anything else
	// is reported as entities.ErrNotStorable.
	GetStorable(ctx context.Context, partNumber entities.PartNumber) (*entities.Product, error)

	// GetComponents returns the bill of materials of a finished product,
	// ordered by find number. An empty slice means the product has no components.
	GetComponents(ctx context.Context, partNumber entities.PartNumber) ([]*entities.BOMLine, error)

	ListProducts(ctx context.Context) ([]*entities.Product, error)
	GetAllBOMLines(ctx context.Context) ([]*entities.BOMLine, error)
	SaveProduct(ctx context.Context, product *entities.Product) error
	SaveBOMLines(ctx context.Context, lines []*entities.BOMLine) error
}
