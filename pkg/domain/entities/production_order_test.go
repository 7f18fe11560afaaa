package entities

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestOrder(t *testing.T) *ProductionOrder {
	t.Helper()
	order, err := NewProductionOrder("MAIN", "Dining set batch", testNow)
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	order.Number = 7
	return order
}

func mustProduct(t *testing.T, pn PartNumber, kind ProductKind) *Product {
	t.Helper()
	product, err := NewProduct(pn, string(pn), kind, "EA")
	if err != nil {
		t.Fatalf("Failed to create product %s: %v", pn, err)
	}
	return product
}

func TestProductionOrder_Validation(t *testing.T) {
	_, err := NewProductionOrder("", "desc", testNow)
	if err == nil {
		t.Fatal("Expected error for empty branch")
	}
	if err.Error() != "branch cannot be empty" {
		t.Errorf("Expected 'branch cannot be empty', got '%s'", err.Error())
	}

	order := newTestOrder(t)
	if order.Status != OrderOpened {
		t.Errorf("Expected new order to be Opened, got %s", order.Status)
	}
	if order.OrderNumber() != "0007" {
		t.Errorf("Expected order number 0007, got %s", order.OrderNumber())
	}
	if order.ResponsibleName() != "" {
		t.Errorf("Expected no responsible, got %s", order.ResponsibleName())
	}
	if len(order.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(order.Items))
	}
}

func TestProductionOrder_StatusTransitions(t *testing.T) {
	tests := []struct {
		name      string
		from      OrderStatus
		action    func(o *ProductionOrder) error
		expected  OrderStatus
		expectErr bool
	}{
		{"opened to waiting", OrderOpened, (*ProductionOrder).SetWaiting, OrderWaiting, false},
		{"waiting to waiting", OrderWaiting, (*ProductionOrder).SetWaiting, OrderWaiting, true},
		{"opened to producing", OrderOpened, func(o *ProductionOrder) error { return o.MarkProducing(testNow) }, OrderProducing, false},
		{"waiting to producing", OrderWaiting, func(o *ProductionOrder) error { return o.MarkProducing(testNow) }, OrderProducing, false},
		{"producing to producing", OrderProducing, func(o *ProductionOrder) error { return o.MarkProducing(testNow) }, OrderProducing, true},
		{"closed to producing", OrderClosed, func(o *ProductionOrder) error { return o.MarkProducing(testNow) }, OrderClosed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := newTestOrder(t)
			order.Status = tt.from

			err := tt.action(order)
			if tt.expectErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("Expected ErrInvalidTransition, got %v", err)
				}
				if !errors.Is(err, ErrPrecondition) {
					t.Fatalf("Expected transition errors to be preconditions, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if order.Status != tt.expected {
				t.Errorf("Expected status %s, got %s", tt.expected, order.Status)
			}
		})
	}
}

func TestProductionOrder_MarkProducingSetsStartDate(t *testing.T) {
	order := newTestOrder(t)

	if err := order.MarkProducing(testNow); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	if order.StartDate == nil {
		t.Fatal("Expected start date to be set")
	}
	expected := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !order.StartDate.Equal(expected) {
		t.Errorf("Expected start date %v, got %v", expected, *order.StartDate)
	}
}

func TestProductionOrder_TryFinalize(t *testing.T) {
	order := newTestOrder(t)
	item, err := order.AddItem(mustProduct(t, "TABLE", StorableProduct), Qty(2))
	if err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}

	if order.TryFinalize(testNow) {
		t.Fatal("Expected Opened order not to close")
	}

	if err := order.MarkProducing(testNow); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	if order.TryFinalize(testNow) {
		t.Fatal("Expected order with unfinished items not to close")
	}

	item.RecordProduced(Qty(1))
	item.RecordLost(Qty(1))
	if !order.TryFinalize(testNow) {
		t.Fatal("Expected order to close once every item is complete")
	}
	if order.Status != OrderClosed || order.CloseDate == nil {
		t.Fatalf("Expected Closed with close date, got %s", order.Status)
	}

	closeDate := *order.CloseDate
	if order.TryFinalize(testNow.Add(48 * time.Hour)) {
		t.Error("Expected second finalize to be a no-op")
	}
	if order.Status != OrderClosed || !order.CloseDate.Equal(closeDate) {
		t.Error("Expected second finalize to leave state unchanged")
	}
	if err := order.CheckMutable(); !errors.Is(err, ErrOrderClosed) {
		t.Errorf("Expected ErrOrderClosed, got %v", err)
	}
}

func TestProductionOrder_Lines(t *testing.T) {
	order := newTestOrder(t)
	table := mustProduct(t, "TABLE", StorableProduct)
	wood := mustProduct(t, "WOOD", StorableProduct)
	assembly := mustProduct(t, "ASSEMBLY", ServiceProduct)

	item, err := order.AddItem(table, Qty(1))
	if err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}
	if _, err := order.AddItem(assembly, Qty(1)); !errors.Is(err, ErrNotStorable) {
		t.Errorf("Expected ErrNotStorable for service item, got %v", err)
	}

	if _, err := order.AddMaterial(wood, Qty(4)); err != nil {
		t.Fatalf("Failed to add material: %v", err)
	}
	if _, err := order.AddMaterial(wood, Qty(1)); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Expected duplicate material to be rejected, got %v", err)
	}
	if order.MaterialIndex()["WOOD"] == nil {
		t.Error("Expected material index to contain WOOD")
	}

	service, err := order.AddService(assembly, Qty(2))
	if err != nil {
		t.Fatalf("Failed to add service: %v", err)
	}
	if _, err := order.AddService(wood, Qty(1)); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Expected storable product to be rejected as service, got %v", err)
	}

	other := newTestOrder(t)
	if _, err := other.RemoveItem(item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected foreign item removal to fail, got %v", err)
	}
	if _, err := order.RemoveItem(item.ID); err != nil {
		t.Errorf("Failed to remove item: %v", err)
	}
	if _, err := order.RemoveService(service.ID); err != nil {
		t.Errorf("Failed to remove service: %v", err)
	}
	if len(order.Items) != 0 || len(order.Services) != 0 {
		t.Errorf("Expected no items or services left, got %d and %d", len(order.Items), len(order.Services))
	}

	if err := order.SetWaiting(); err != nil {
		t.Fatalf("Failed to set waiting: %v", err)
	}
	if _, err := order.AddItem(table, Qty(1)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected items to be rejected outside Opened, got %v", err)
	}
}

func TestProductionOrder_SnapshotRestore(t *testing.T) {
	order := newTestOrder(t)
	item, _ := order.AddItem(mustProduct(t, "TABLE", StorableProduct), Qty(3))
	material, _ := order.AddMaterial(mustProduct(t, "WOOD", StorableProduct), Qty(12))
	if err := order.MarkProducing(testNow); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}

	snap := order.Snapshot()
	material.RecordAllocated(Qty(12))
	material.RecordConsumed(Qty(12))
	item.RecordProduced(Qty(3))
	order.TryFinalize(testNow)

	order.Restore(snap)

	if order.Status != OrderProducing || order.CloseDate != nil {
		t.Errorf("Expected Producing without close date, got %s", order.Status)
	}
	if !item.Produced.IsZero() {
		t.Errorf("Expected produced restored to 0, got %s", item.Produced)
	}
	if !material.Allocated.IsZero() || !material.Consumed.IsZero() {
		t.Errorf("Expected material restored, got allocated=%s consumed=%s", material.Allocated, material.Consumed)
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, status := range []OrderStatus{OrderOpened, OrderWaiting, OrderProducing, OrderClosed} {
		parsed, err := ParseOrderStatus(status.String())
		if err != nil || parsed != status {
			t.Errorf("Expected %s to round trip, got %s (%v)", status, parsed, err)
		}
	}
	if _, err := ParseOrderStatus("Cancelled"); err == nil {
		t.Error("Expected unknown status to fail")
	}
}
