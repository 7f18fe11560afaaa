package testing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

// Branch every workshop fixture stocks and produces at
const WorkshopBranch entities.BranchID = "WORKSHOP"

func mustCreateProduct(pn entities.PartNumber, description string, kind entities.ProductKind, uom string) *entities.Product {
	product, err := entities.NewProduct(pn, description, kind, uom)
	if err != nil {
		panic(fmt.Sprintf("failed to create product %s: %v", pn, err))
	}
	return product
}

func mustCreateBOMLine(parent, child entities.PartNumber, qtyPer string, findNumber int) *entities.BOMLine {
	line, err := entities.NewBOMLine(parent, child, entities.MustQty(qtyPer), findNumber)
	if err != nil {
		panic(fmt.Sprintf("failed to create BOM line %s -> %s: %v", parent, child, err))
	}
	return line
}

// BuildWorkshopCatalog returns a small furniture workshop: tables and chairs
// built from boards, legs and screws, plus an assembly service.
//
//	TABLE = 2 BOARD + 4 LEG + 16 SCREW + 0.25 VARNISH
//	CHAIR = 1 BOARD + 4 LEG + 8 SCREW
func BuildWorkshopCatalog() ([]*entities.Product, []*entities.BOMLine) {
	products := []*entities.Product{
		mustCreateProduct("TABLE", "Dining table", entities.StorableProduct, "EA"),
		mustCreateProduct("CHAIR", "Dining chair", entities.StorableProduct, "EA"),
		mustCreateProduct("BOARD", "Oak board 2m", entities.StorableProduct, "EA"),
		mustCreateProduct("LEG", "Turned leg", entities.StorableProduct, "EA"),
		mustCreateProduct("SCREW", "Wood screw 40mm", entities.StorableProduct, "EA"),
		mustCreateProduct("VARNISH", "Clear varnish", entities.StorableProduct, "L"),
		mustCreateProduct("ASSEMBLY", "Assembly labour", entities.ServiceProduct, "H"),
	}

	lines := []*entities.BOMLine{
		mustCreateBOMLine("TABLE", "BOARD", "2", 10),
		mustCreateBOMLine("TABLE", "LEG", "4", 20),
		mustCreateBOMLine("TABLE", "SCREW", "16", 30),
		mustCreateBOMLine("TABLE", "VARNISH", "0.25", 40),
		mustCreateBOMLine("CHAIR", "BOARD", "1", 10),
		mustCreateBOMLine("CHAIR", "LEG", "4", 20),
		mustCreateBOMLine("CHAIR", "SCREW", "8", 30),
	}
	return products, lines
}

// BuildSimpleCatalog is one finished product made 1:1 from one raw material
func BuildSimpleCatalog() ([]*entities.Product, []*entities.BOMLine) {
	products := []*entities.Product{
		mustCreateProduct("WIDGET", "Widget", entities.StorableProduct, "EA"),
		mustCreateProduct("BLANK", "Widget blank", entities.StorableProduct, "EA"),
	}
	return products, []*entities.BOMLine{mustCreateBOMLine("WIDGET", "BLANK", "1", 10)}
}

// SeedStore saves a catalog and the given on-hand balances at branch in
// one transaction.
func SeedStore(ctx context.Context, store repositories.Store, products []*entities.Product, lines []*entities.BOMLine,
	branch entities.BranchID, stock map[entities.PartNumber]string,
) error {
	return store.Transaction(ctx, func(tx repositories.Tx) error {
		for _, product := range products {
			if err := tx.Products().SaveProduct(ctx, product); err != nil {
				return err
			}
		}
		if err := tx.Products().SaveBOMLines(ctx, lines); err != nil {
			return err
		}
		for pn, quantity := range stock {
			q, err := decimal.NewFromString(quantity)
			if err != nil {
				return fmt.Errorf("invalid fixture quantity %q for %s: %w", quantity, pn, err)
			}
			if err := tx.Stock().Increase(ctx, pn, branch, q); err != nil {
				return err
			}
		}
		return nil
	})
}
