package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/vsinha/production/pkg/domain/entities"
)

type productRepository struct {
	tx *tx
}

func (r productRepository) GetProduct(_ context.Context, partNumber entities.PartNumber) (*entities.Product, error) {
	product, ok := r.tx.store.products[partNumber]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", entities.ErrNotFound, partNumber)
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

func (r productRepository) GetComponents(_ context.Context, partNumber entities.PartNumber) ([]*entities.BOMLine, error) {
	lines := r.tx.store.bomLines[partNumber]
	components := make([]*entities.BOMLine, len(lines))
	for i := range lines {
		line := lines[i]
		components[i] = &line
	}
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].FindNumber < components[j].FindNumber
	})
	return components, nil
}

func (r productRepository) ListProducts(_ context.Context) ([]*entities.Product, error) {
	products := make([]*entities.Product, 0, len(r.tx.store.products))
	for _, product := range r.tx.store.products {
		product := product
		products = append(products, &product)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].PartNumber < products[j].PartNumber
	})
	return products, nil
}

func (r productRepository) GetAllBOMLines(ctx context.Context) ([]*entities.BOMLine, error) {
	parents := make([]entities.PartNumber, 0, len(r.tx.store.bomLines))
	for parent := range r.tx.store.bomLines {
		parents = append(parents, parent)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })

	var all []*entities.BOMLine
	for _, parent := range parents {
		lines, _ := r.GetComponents(ctx, parent)
		all = append(all, lines...)
	}
	return all, nil
}

func (r productRepository) SaveProduct(_ context.Context, product *entities.Product) error {
	s := r.tx.store
	previous, existed := s.products[product.PartNumber]
	r.tx.record(func() {
		if existed {
			s.products[product.PartNumber] = previous
		} else {
			delete(s.products, product.PartNumber)
		}
	})
	s.products[product.PartNumber] = *product
	return nil
}

// SaveBOMLines replaces any existing line with the same parent and child
func (r productRepository) SaveBOMLines(_ context.Context, lines []*entities.BOMLine) error {
	s := r.tx.store
	for _, line := range lines {
		parent := line.ParentPN
		previous := s.bomLines[parent]
		previousID := s.nextBOMID
		r.tx.record(func() {
			s.bomLines[parent] = previous
			s.nextBOMID = previousID
			if previous == nil {
				delete(s.bomLines, parent)
			}
		})

		updated := make([]entities.BOMLine, 0, len(previous)+1)
		replaced := false
		for _, existing := range previous {
			if existing.ChildPN == line.ChildPN {
				line.ID = existing.ID
				updated = append(updated, *line)
				replaced = true
				continue
			}
			updated = append(updated, existing)
		}
		if !replaced {
			s.nextBOMID++
			line.ID = s.nextBOMID
			updated = append(updated, *line)
		}
		s.bomLines[parent] = updated
	}
	return nil
}
