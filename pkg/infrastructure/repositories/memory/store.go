package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

type stockKey struct {
	partNumber entities.PartNumber
	branch     entities.BranchID
}

// Store keeps every table in process memory. Transactions are fully
// serialized: one holds the store until it commits or rolls back, so calling
// Transaction again from inside fn deadlocks.
type Store struct {
	mu sync.Mutex

	products   map[entities.PartNumber]entities.Product
	bomLines   map[entities.PartNumber][]entities.BOMLine
	nextBOMID  uint
	stock      map[stockKey]entities.StockBalance
	orders     map[uuid.UUID]*entities.ProductionOrder
	nextNumber int64
	history    []entities.HistoryEntry

	now func() time.Time
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		products: make(map[entities.PartNumber]entities.Product),
		bomLines: make(map[entities.PartNumber][]entities.BOMLine),
		stock:    make(map[stockKey]entities.StockBalance),
		orders:   make(map[uuid.UUID]*entities.ProductionOrder),
		now:      time.Now,
	}
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)
var _ repositories.Tx = (*tx)(nil)

func (s *Store) Transaction(ctx context.Context, fn func(tx repositories.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s}
	defer func() {
		if r := recover(); r != nil {
			t.undoTo(0)
			panic(r)
		}
		if err != nil {
			t.undoTo(0)
		}
	}()

	if err = fn(t); err != nil {
		return err
	}
	// A context cancelled mid-transaction aborts it like a failed statement would
	return ctx.Err()
}

type savepoint struct {
	name     string
	position int
}

// tx records an undo step for every write. Rolling back replays them in
// reverse down to the requested position.
type tx struct {
	store      *Store
	journal    []func()
	savepoints []savepoint
}

func (t *tx) Products() repositories.ProductRepository { return productRepository{t} }
func (t *tx) Stock() repositories.StockLedger { return stockLedger{t} }
func (t *tx) Orders() repositories.ProductionOrderRepository { return orderRepository{t} }
func (t *tx) History() repositories.HistoryRecorder { return historyRecorder{t} }

func (t *tx) SavePoint(name string) error {
	if name == "" {
		return fmt.Errorf("savepoint name cannot be empty")
	}
	t.savepoints = append(t.savepoints, savepoint{name: name, position: len(t.journal)})
	return nil
}

// RollbackTo undoes every write made after the most recent savepoint called
// name. The savepoint itself survives and can be rolled back to again.
func (t *tx) RollbackTo(name string) error {
	for i := len(t.savepoints) - 1; i >= 0; i-- {
		if t.savepoints[i].name == name {
			t.undoTo(t.savepoints[i].position)
			t.savepoints = t.savepoints[:i+1]
			return nil
		}
	}
	return fmt.Errorf("savepoint %q does not exist", name)
}

func (t *tx) record(undo func()) {
	t.journal = append(t.journal, undo)
}

func (t *tx) undoTo(position int) {
	for i := len(t.journal) - 1; i >= position; i-- {
		t.journal[i]()
	}
	t.journal = t.journal[:position]
}

func (t *tx) setStock(key stockKey, quantity decimal.Decimal) {
	s := t.store
	previous, existed := s.stock[key]
	t.record(func() {
		if existed {
			s.stock[key] = previous
		} else {
			delete(s.stock, key)
		}
	})
	s.stock[key] = entities.StockBalance{
		PartNumber: key.partNumber,
		BranchID:   key.branch,
		Quantity:   quantity,
		UpdatedAt:  s.now(),
	}
}
