package repositories

import "context"

// Tx is one unit of work. Every repository handed out by a Tx shares its
// transaction, and SavePoint/RollbackTo undo all of them together,
// stock balances included.
type Tx interface {
	Products() ProductRepository
	Stock() StockLedger
	Orders() ProductionOrderRepository
	History() HistoryRecorder

	// SavePoint marks the current state under name. Names may be reused;
	// RollbackTo targets the most recent mark with that name.
	SavePoint(name string) error
	RollbackTo(name string) error
}

// Store runs transactions. fn's changes are committed when it returns nil
// and discarded otherwise.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}
