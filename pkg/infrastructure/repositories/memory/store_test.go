package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

func balanceOf(t *testing.T, store *Store, pn entities.PartNumber, branch entities.BranchID) string {
	t.Helper()
	var balance string
	err := store.Transaction(context.Background(), func(tx repositories.Tx) error {
		q, err := tx.Stock().Balance(context.Background(), pn, branch)
		balance = q.String()
		return err
	})
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	return balance
}

func TestStore_StockLedger(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Transaction(ctx, func(tx repositories.Tx) error {
		if err := tx.Stock().Increase(ctx, "WOOD", "MAIN", entities.Qty(10)); err != nil {
			return err
		}
		return tx.Stock().Decrease(ctx, "WOOD", "MAIN", entities.MustQty("2.5"))
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := balanceOf(t, store, "WOOD", "MAIN"); got != "7.5" {
		t.Errorf("Expected balance 7.5, got %s", got)
	}
	if got := balanceOf(t, store, "WOOD", "OTHER"); got != "0" {
		t.Errorf("Expected unknown branch to have balance 0, got %s", got)
	}

	err = store.Transaction(ctx, func(tx repositories.Tx) error {
		return tx.Stock().Decrease(ctx, "WOOD", "MAIN", entities.Qty(8))
	})
	if !errors.Is(err, entities.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}
	expected := "insufficient stock: cannot take 8 of WOOD from branch MAIN, balance is 7.5"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}
	if got := balanceOf(t, store, "WOOD", "MAIN"); got != "7.5" {
		t.Errorf("Expected balance unchanged at 7.5, got %s", got)
	}
}

func TestStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx repositories.Tx) error {
		product, _ := entities.NewProduct("WOOD", "Oak board", entities.StorableProduct, "EA")
		tx.Products().SaveProduct(ctx, product)
		tx.Stock().Increase(ctx, "WOOD", "MAIN", entities.Qty(5))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	store.Transaction(ctx, func(tx repositories.Tx) error {
		if _, err := tx.Products().GetProduct(ctx, "WOOD"); !errors.Is(err, entities.ErrNotFound) {
			t.Errorf("Expected product to be rolled back, got %v", err)
		}
		return nil
	})
	if got := balanceOf(t, store, "WOOD", "MAIN"); got != "0" {
		t.Errorf("Expected stock to be rolled back, got %s", got)
	}
}

func TestStore_SavePoints(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Transaction(ctx, func(tx repositories.Tx) error {
		stock := tx.Stock()
		stock.Increase(ctx, "WOOD", "MAIN", entities.Qty(10))

		if err := tx.SavePoint("before_produce"); err != nil {
			return err
		}
		stock.Decrease(ctx, "WOOD", "MAIN", entities.Qty(3))

		tx.SavePoint("inner")
		stock.Decrease(ctx, "WOOD", "MAIN", entities.Qty(4))
		if err := tx.RollbackTo("inner"); err != nil {
			return err
		}
		if q, _ := stock.Balance(ctx, "WOOD", "MAIN"); !q.Equal(entities.Qty(7)) {
			t.Errorf("Expected 7 after inner rollback, got %s", q)
		}

		if err := tx.RollbackTo("before_produce"); err != nil {
			return err
		}
		if q, _ := stock.Balance(ctx, "WOOD", "MAIN"); !q.Equal(entities.Qty(10)) {
			t.Errorf("Expected 10 after outer rollback, got %s", q)
		}
		if err := tx.RollbackTo("inner"); err == nil {
			t.Error("Expected savepoint released by outer rollback to be gone")
		}

		// Rolling back to the same savepoint twice is allowed
		stock.Decrease(ctx, "WOOD", "MAIN", entities.Qty(1))
		return tx.RollbackTo("before_produce")
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := balanceOf(t, store, "WOOD", "MAIN"); got != "10" {
		t.Errorf("Expected committed balance 10, got %s", got)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Transaction(ctx, func(tx repositories.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("Expected fn not to run on a cancelled context")
	}
}

func TestStore_Products(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Transaction(ctx, func(tx repositories.Tx) error {
		products := tx.Products()
		for _, p := range []struct {
			pn   entities.PartNumber
			kind entities.ProductKind
		}{
			{"TABLE", entities.StorableProduct},
			{"WOOD", entities.StorableProduct},
			{"SCREW", entities.StorableProduct},
			{"ASSEMBLY", entities.ServiceProduct},
		} {
			product, err := entities.NewProduct(p.pn, string(p.pn), p.kind, "EA")
			if err != nil {
				return err
			}
			products.SaveProduct(ctx, product)
		}

		screws, _ := entities.NewBOMLine("TABLE", "SCREW", entities.Qty(8), 20)
		wood, _ := entities.NewBOMLine("TABLE", "WOOD", entities.Qty(4), 10)
		if err := products.SaveBOMLines(ctx, []*entities.BOMLine{screws, wood}); err != nil {
			return err
		}

		// Same parent and child replaces the existing line
		moreWood, _ := entities.NewBOMLine("TABLE", "WOOD", entities.Qty(5), 10)
		return products.SaveBOMLines(ctx, []*entities.BOMLine{moreWood})
	})
	if err != nil {
		t.Fatalf("Failed to seed products: %v", err)
	}

	store.Transaction(ctx, func(tx repositories.Tx) error {
		components, err := tx.Products().GetComponents(ctx, "TABLE")
		if err != nil {
			t.Fatalf("Failed to get components: %v", err)
		}
		if len(components) != 2 {
			t.Fatalf("Expected 2 components, got %d", len(components))
		}
		if components[0].ChildPN != "WOOD" || components[1].ChildPN != "SCREW" {
			t.Errorf("Expected components ordered by find number, got %s, %s", components[0].ChildPN, components[1].ChildPN)
		}
		if !components[0].QtyPer.Equal(entities.Qty(5)) {
			t.Errorf("Expected replaced quantity per 5, got %s", components[0].QtyPer)
		}

		none, _ := tx.Products().GetComponents(ctx, "WOOD")
		if len(none) != 0 {
			t.Errorf("Expected raw material to have no components, got %d", len(none))
		}

		if _, err := tx.Products().GetStorable(ctx, "ASSEMBLY"); !errors.Is(err, entities.ErrNotStorable) {
			t.Errorf("Expected ErrNotStorable for a service, got %v", err)
		}
		if _, err := tx.Products().GetStorable(ctx, "MISSING"); !errors.Is(err, entities.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		all, _ := tx.Products().ListProducts(ctx)
		if len(all) != 4 || all[0].PartNumber != "ASSEMBLY" {
			t.Errorf("Expected 4 products sorted by part number, got %d", len(all))
		}
		return nil
	})
}

func TestStore_Orders(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	table, _ := entities.NewProduct("TABLE", "Table", entities.StorableProduct, "EA")

	var order *entities.ProductionOrder
	err := store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		order, err = entities.NewProductionOrder("MAIN", "Tables", now)
		if err != nil {
			return err
		}
		order.Number, _ = tx.Orders().NextNumber(ctx)
		order.AddItem(table, entities.Qty(3))
		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	if order.Number != 1 {
		t.Errorf("Expected first order number 1, got %d", order.Number)
	}

	// Mutating the caller's copy must not leak into the store
	order.Items[0].Produced = entities.Qty(3)

	store.Transaction(ctx, func(tx repositories.Tx) error {
		loaded, err := tx.Orders().Get(ctx, order.ID)
		if err != nil {
			t.Fatalf("Failed to load order: %v", err)
		}
		if !loaded.Items[0].Produced.IsZero() {
			t.Errorf("Expected stored item untouched, got produced=%s", loaded.Items[0].Produced)
		}

		byNumber, err := tx.Orders().GetByNumber(ctx, 1)
		if err != nil || byNumber.ID != order.ID {
			t.Errorf("Expected to find order by number, got %v", err)
		}

		producing := entities.OrderProducing
		list, _ := tx.Orders().List(ctx, repositories.OrderFilter{Status: &producing})
		if len(list) != 0 {
			t.Errorf("Expected no producing orders, got %d", len(list))
		}

		if err := tx.Orders().DeleteItem(ctx, loaded.Items[0]); err != nil {
			t.Errorf("Failed to delete item: %v", err)
		}
		return errors.New("discard")
	})

	store.Transaction(ctx, func(tx repositories.Tx) error {
		loaded, _ := tx.Orders().Get(ctx, order.ID)
		if len(loaded.Items) != 1 {
			t.Errorf("Expected rolled back item delete, got %d items", len(loaded.Items))
		}
		if err := tx.Orders().Delete(ctx, order.ID); err != nil {
			t.Errorf("Failed to delete order: %v", err)
		}
		if _, err := tx.Orders().Get(ctx, order.ID); !errors.Is(err, entities.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		return nil
	})
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	order, _ := entities.NewProductionOrder("MAIN", "", now)
	item := &entities.ProductionItem{OrderID: order.ID, PartNumber: "TABLE"}
	material := &entities.ProductionMaterial{OrderID: order.ID, PartNumber: "WOOD"}

	store.Transaction(ctx, func(tx repositories.Tx) error {
		tx.History().Record(ctx, entities.NewConsumedEntry(order, material, entities.Qty(4), now))
		tx.SavePoint("before_produce")
		tx.History().Record(ctx, entities.NewProducedEntry(order, item, entities.Qty(1), now))
		tx.RollbackTo("before_produce")
		tx.History().Record(ctx, entities.NewItemLostEntry(order, item, entities.Qty(1), now))
		return nil
	})

	store.Transaction(ctx, func(tx repositories.Tx) error {
		all, _ := tx.History().List(ctx, repositories.HistoryFilter{OrderID: order.ID})
		if len(all) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(all))
		}
		lost := entities.HistoryLost
		losses, _ := tx.History().List(ctx, repositories.HistoryFilter{Kind: &lost})
		if len(losses) != 1 || losses[0].PartNumber != "TABLE" {
			t.Errorf("Expected one TABLE loss, got %d", len(losses))
		}
		return nil
	})
}
