package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

const orderNumberSequence = "production_order_number_seq"

// Store runs each transaction on a gorm.DB. Balances and orders read through
// a transaction are locked FOR UPDATE until it ends.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)
var _ repositories.Tx = (*tx)(nil)

// Migrate creates or updates every table the store uses
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(
		&entities.Product{},
		&entities.BOMLine{},
		&entities.StockBalance{},
		&entities.ProductionOrder{},
		&entities.ProductionItem{},
		&entities.ProductionMaterial{},
		&entities.ProductionService{},
		&entities.HistoryEntry{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	if err := db.Exec("CREATE SEQUENCE IF NOT EXISTS " + orderNumberSequence).Error; err != nil {
		return fmt.Errorf("failed to create order number sequence: %w", err)
	}
	return nil
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repositories.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&tx{db: db})
	})
}

type tx struct {
	db *gorm.DB
}

func (t *tx) Products() repositories.ProductRepository { return productRepository{t.db} }
func (t *tx) Stock() repositories.StockLedger { return stockLedger{t.db} }
func (t *tx) Orders() repositories.ProductionOrderRepository { return orderRepository{t.db} }
func (t *tx) History() repositories.HistoryRecorder { return historyRecorder{t.db} }

func (t *tx) SavePoint(name string) error {
	return t.db.SavePoint(name).Error
}

func (t *tx) RollbackTo(name string) error {
	return t.db.RollbackTo(name).Error
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", entities.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("failed to load %s: %w", fmt.Sprintf(format, args...), err)
}
