package entities

import (
	"errors"
	"testing"
)

func TestProductionItem_CanProduce(t *testing.T) {
	item := &ProductionItem{PartNumber: "TABLE", Quantity: Qty(10), Produced: Qty(8), Lost: Qty(0)}

	if item.CanProduce(Qty(5)) {
		t.Error("Expected can_produce(5) to be false with 8 of 10 produced")
	}
	if !item.CanProduce(Qty(2)) {
		t.Error("Expected can_produce(2) to be true with 8 of 10 produced")
	}

	item.Lost = Qty(1)
	if item.CanProduce(Qty(2)) {
		t.Error("Expected lost units to count against the target")
	}
}

func TestProductionItem_CheckProduce(t *testing.T) {
	item := &ProductionItem{PartNumber: "TABLE", Quantity: Qty(10), Produced: Qty(8), Lost: Qty(0)}

	err := item.CheckProduce(Qty(5))
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("Expected ErrPrecondition, got %v", err)
	}
	if err.Error() != "precondition violated: cannot produce 5 of TABLE, only 2 remaining" {
		t.Errorf("Unexpected message: %s", err.Error())
	}

	if err := item.CheckProduce(Qty(-1)); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Expected ErrPrecondition for negative quantity, got %v", err)
	}
}

func TestProductionItem_CheckLost(t *testing.T) {
	item := &ProductionItem{PartNumber: "TABLE", Quantity: Qty(10), Produced: Qty(6), Lost: Qty(1)}

	if err := item.CheckLost(Qty(3)); err != nil {
		t.Errorf("Expected loss of remaining units to pass: %v", err)
	}
	if err := item.CheckLost(Qty(4)); !errors.Is(err, ErrOverLoss) {
		t.Errorf("Expected ErrOverLoss, got %v", err)
	}
}

func TestProductionItem_IsCompletelyProduced(t *testing.T) {
	item := &ProductionItem{PartNumber: "TABLE", Quantity: Qty(10), Produced: Qty(7), Lost: Qty(2)}
	if item.IsCompletelyProduced() {
		t.Error("Expected item with 1 unit remaining to be incomplete")
	}

	item.RecordLost(Qty(1))
	if !item.IsCompletelyProduced() {
		t.Error("Expected item to be complete once produced + lost == quantity")
	}
	if !item.Remaining().IsZero() {
		t.Errorf("Expected nothing remaining, got %s", item.Remaining())
	}
}
