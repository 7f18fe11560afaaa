package production

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
	"github.com/vsinha/production/pkg/infrastructure/events"
)

const (
	savepointProduce = "before_produce"
	savepointLose    = "before_lose"
	savepointHistory = "before_history"
)

// Ledger applies allocation, consumption and loss movements to orders
// loaded in one transaction. Stock and history writes go straight to the
// transaction; order fields are changed in memory and saved by the caller.
//
// Produce and LoseItem are all-or-nothing: when any component fails they
// roll back to their savepoint, restore the order's fields and return the
// component's error unchanged.
type Ledger struct {
	tx     repositories.Tx
	now    func() time.Time
	logger *zap.Logger

	pending []events.Event
}

func newLedger(tx repositories.Tx, now func() time.Time, logger *zap.Logger) *Ledger {
	return &Ledger{tx: tx, now: now, logger: logger}
}

// Tx exposes the transaction the ledger writes to
func (l *Ledger) Tx() repositories.Tx {
	return l.tx
}

// Allocate reserves stock for a material. A nil quantity reserves whatever is
// still needed, capped by the available balance. It returns the quantity
// actually reserved, which may be zero.
func (l *Ledger) Allocate(ctx context.Context, order *entities.ProductionOrder, material *entities.ProductionMaterial, quantity *decimal.Decimal) (decimal.Decimal, error) {
	if err := order.CheckMutable(); err != nil {
		return decimal.Zero, err
	}
	if _, err := l.tx.Products().GetStorable(ctx, material.PartNumber); err != nil {
		return decimal.Zero, err
	}

	available, err := l.tx.Stock().Balance(ctx, material.PartNumber, order.BranchID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance of %s: %w", material.PartNumber, err)
	}

	var reserve decimal.Decimal
	if quantity == nil {
		reserve = material.AutoAllocation(available)
	} else {
		if err := material.CheckAllocation(*quantity, available); err != nil {
			return decimal.Zero, err
		}
		reserve = *quantity
	}
	if reserve.IsZero() {
		return decimal.Zero, nil
	}

	if err := l.tx.Stock().Decrease(ctx, material.PartNumber, order.BranchID, reserve); err != nil {
		return decimal.Zero, err
	}
	material.RecordAllocated(reserve)
	l.emit(events.NewMaterialMovement(events.MaterialAllocatedEvent, material, reserve, l.now()))
	return reserve, nil
}

// Consume records material used by production, topping up the reservation
// first when it does not cover the new total.
func (l *Ledger) Consume(ctx context.Context, order *entities.ProductionOrder, material *entities.ProductionMaterial, quantity decimal.Decimal) error {
	if err := order.CheckMutable(); err != nil {
		return err
	}
	if err := material.CheckConsume(quantity); err != nil {
		return err
	}
	if err := l.topUp(ctx, order, material, quantity); err != nil {
		return err
	}

	material.RecordConsumed(quantity)
	at := l.now()
	l.record(ctx, entities.NewConsumedEntry(order, material, quantity, at))
	l.emit(events.NewMaterialMovement(events.MaterialConsumedEvent, material, quantity, at))
	return nil
}

// LoseMaterial writes off material, topping up the reservation like Consume
func (l *Ledger) LoseMaterial(ctx context.Context, order *entities.ProductionOrder, material *entities.ProductionMaterial, quantity decimal.Decimal) error {
	if err := order.CheckMutable(); err != nil {
		return err
	}
	if err := material.CheckLost(quantity); err != nil {
		return err
	}
	if err := l.topUp(ctx, order, material, quantity); err != nil {
		return err
	}

	material.RecordLost(quantity)
	at := l.now()
	l.record(ctx, entities.NewMaterialLostEntry(order, material, quantity, at))
	l.emit(events.NewMaterialMovement(events.MaterialLostEvent, material, quantity, at))
	return nil
}

func (l *Ledger) topUp(ctx context.Context, order *entities.ProductionOrder, material *entities.ProductionMaterial, quantity decimal.Decimal) error {
	missing := material.TopUp(quantity)
	if missing.IsZero() {
		return nil
	}
	_, err := l.Allocate(ctx, order, material, &missing)
	return err
}

// Produce consumes every component of the item for quantity units, adds the
// finished units to stock and closes the order when it is done.
func (l *Ledger) Produce(ctx context.Context, order *entities.ProductionOrder, item *entities.ProductionItem, quantity decimal.Decimal) error {
	if err := order.CheckMutable(); err != nil {
		return err
	}
	if err := item.CheckProduce(quantity); err != nil {
		return err
	}
	if _, err := l.tx.Products().GetStorable(ctx, item.PartNumber); err != nil {
		return err
	}

	err := l.withSavePoint(savepointProduce, order, func() error {
		if err := l.drawComponents(ctx, order, item, quantity, l.Consume); err != nil {
			return err
		}
		if err := l.tx.Stock().Increase(ctx, item.PartNumber, order.BranchID, quantity); err != nil {
			return fmt.Errorf("failed to add %s to stock: %w", item.PartNumber, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	item.RecordProduced(quantity)
	at := l.now()
	l.emit(events.NewItemMovement(events.ItemProducedEvent, item, quantity, at))
	l.TryFinalize(order)
	l.record(ctx, entities.NewProducedEntry(order, item, quantity, at))
	return nil
}

// LoseItem writes off quantity units of an item together with the material
// they would have used.
func (l *Ledger) LoseItem(ctx context.Context, order *entities.ProductionOrder, item *entities.ProductionItem, quantity decimal.Decimal) error {
	if err := order.CheckMutable(); err != nil {
		return err
	}
	if err := item.CheckLost(quantity); err != nil {
		return err
	}

	err := l.withSavePoint(savepointLose, order, func() error {
		return l.drawComponents(ctx, order, item, quantity, l.LoseMaterial)
	})
	if err != nil {
		return err
	}

	item.RecordLost(quantity)
	at := l.now()
	l.emit(events.NewItemMovement(events.ItemLostEvent, item, quantity, at))
	l.TryFinalize(order)
	l.record(ctx, entities.NewItemLostEntry(order, item, quantity, at))
	return nil
}

type materialMovement func(context.Context, *entities.ProductionOrder, *entities.ProductionMaterial, decimal.Decimal) error

func (l *Ledger) drawComponents(ctx context.Context, order *entities.ProductionOrder, item *entities.ProductionItem, quantity decimal.Decimal, move materialMovement) error {
	components, err := l.tx.Products().GetComponents(ctx, item.PartNumber)
	if err != nil {
		return fmt.Errorf("failed to load components of %s: %w", item.PartNumber, err)
	}

	materials := order.MaterialIndex()
	for _, component := range components {
		material, ok := materials[component.ChildPN]
		if !ok {
			return fmt.Errorf("%w: order %s has no material line for component %s of %s",
				entities.ErrPrecondition, order.OrderNumber(), component.ChildPN, item.PartNumber)
		}
		if err := move(ctx, order, material, component.Requirement(quantity)); err != nil {
			return err
		}
	}
	return nil
}

// withSavePoint runs fn after marking the transaction. On failure the
// transaction, the order's fields and the pending events all go back to
// where they were at the mark.
func (l *Ledger) withSavePoint(name string, order *entities.ProductionOrder, fn func() error) error {
	if err := l.tx.SavePoint(name); err != nil {
		return fmt.Errorf("failed to create savepoint %s: %w", name, err)
	}
	snapshot := order.Snapshot()
	mark := len(l.pending)

	err := fn()
	if err == nil {
		return nil
	}

	if rbErr := l.tx.RollbackTo(name); rbErr != nil {
		return fmt.Errorf("failed to roll back to %s: %v (after %w)", name, rbErr, err)
	}
	order.Restore(snapshot)
	l.pending = l.pending[:mark]
	return err
}

// StartProduction reserves every material it can and moves the order to
// Producing.
func (l *Ledger) StartProduction(ctx context.Context, order *entities.ProductionOrder) error {
	if err := order.CheckCanStart(); err != nil {
		return err
	}
	for _, material := range order.Materials {
		if _, err := l.Allocate(ctx, order, material, nil); err != nil {
			return err
		}
	}

	from, at := order.Status, l.now()
	if err := order.MarkProducing(at); err != nil {
		return err
	}
	l.emit(events.NewOrderTransitioned(events.OrderStartedEvent, order, from, at))
	return nil
}

// TryFinalize closes the order when every item is completely produced.
// It is safe to call at any time.
func (l *Ledger) TryFinalize(order *entities.ProductionOrder) bool {
	at := l.now()
	if !order.TryFinalize(at) {
		return false
	}
	l.emit(events.NewOrderTransitioned(events.OrderClosedEvent, order, entities.OrderProducing, at))
	return true
}

// record appends to the audit history without ever failing the movement.
// The insert runs under its own savepoint so a failed write leaves the
// transaction usable.
func (l *Ledger) record(ctx context.Context, entry *entities.HistoryEntry) {
	if err := l.tx.SavePoint(savepointHistory); err != nil {
		l.logger.Warn("history not recorded", zap.String("kind", entry.Kind.String()), zap.Error(err))
		return
	}
	if err := l.tx.History().Record(ctx, entry); err != nil {
		l.logger.Warn("history not recorded",
			zap.String("kind", entry.Kind.String()),
			zap.String("part_number", string(entry.PartNumber)),
			zap.Error(err))
		if rbErr := l.tx.RollbackTo(savepointHistory); rbErr != nil {
			l.logger.Error("failed to discard history write", zap.Error(rbErr))
		}
	}
}

func (l *Ledger) emit(event events.Event) {
	l.pending = append(l.pending, event)
}

// Events returns what the ledger has emitted so far
func (l *Ledger) Events() []events.Event {
	return l.pending
}
