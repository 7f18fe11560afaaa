package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/entities"
)

// Order actions, shared by scenario actions.csv files and the order command
const (
	ActionPlan         = "plan"
	ActionWait         = "wait"
	ActionStart        = "start"
	ActionAllocate     = "allocate"
	ActionConsume      = "consume"
	ActionLoseMaterial = "lose-material"
	ActionProduce      = "produce"
	ActionLose         = "lose"
	ActionFinalize     = "finalize"
)

// applyAction runs one action against an order. Item and material actions
// find their line by part number.
func applyAction(ctx context.Context, svc *production.Service, orderID uuid.UUID,
	action string, target entities.PartNumber, quantity *decimal.Decimal,
) error {
	switch action {
	case ActionPlan:
		_, err := svc.PlanMaterials(ctx, orderID)
		return err
	case ActionWait:
		_, err := svc.SetWaiting(ctx, orderID)
		return err
	case ActionStart:
		_, err := svc.StartProduction(ctx, orderID)
		return err
	case ActionFinalize:
		_, err := svc.TryFinalize(ctx, orderID)
		return err
	}

	order, err := svc.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	switch action {
	case ActionAllocate:
		material, err := findMaterial(order, target)
		if err != nil {
			return err
		}
		_, err = svc.Allocate(ctx, orderID, material.ID, quantity)
		return err
	case ActionConsume, ActionLoseMaterial:
		material, err := findMaterial(order, target)
		if err != nil {
			return err
		}
		q, err := requireQuantity(action, quantity)
		if err != nil {
			return err
		}
		if action == ActionConsume {
			_, err = svc.Consume(ctx, orderID, material.ID, q)
		} else {
			_, err = svc.LoseMaterial(ctx, orderID, material.ID, q)
		}
		return err
	case ActionProduce, ActionLose:
		item, err := findItem(order, target)
		if err != nil {
			return err
		}
		q, err := requireQuantity(action, quantity)
		if err != nil {
			return err
		}
		if action == ActionProduce {
			_, err = svc.Produce(ctx, orderID, item.ID, q)
		} else {
			_, err = svc.LoseItem(ctx, orderID, item.ID, q)
		}
		return err
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
}

func requireQuantity(action string, quantity *decimal.Decimal) (decimal.Decimal, error) {
	if quantity == nil {
		return decimal.Zero, fmt.Errorf("%s needs a quantity", action)
	}
	return *quantity, nil
}

// findItem returns the first item of pn that still has units to produce,
// or the first item of pn when all are done
func findItem(order *entities.ProductionOrder, pn entities.PartNumber) (*entities.ProductionItem, error) {
	var found *entities.ProductionItem
	for _, item := range order.Items {
		if item.PartNumber != pn {
			continue
		}
		if !item.IsCompletelyProduced() {
			return item, nil
		}
		if found == nil {
			found = item
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: order %s has no item %s", entities.ErrNotFound, order.OrderNumber(), pn)
	}
	return found, nil
}

func findMaterial(order *entities.ProductionOrder, pn entities.PartNumber) (*entities.ProductionMaterial, error) {
	if m := order.MaterialFor(pn); m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("%w: order %s has no material %s", entities.ErrNotFound, order.OrderNumber(), pn)
}

func findService(order *entities.ProductionOrder, pn entities.PartNumber) (*entities.ProductionService, error) {
	for _, svc := range order.Services {
		if svc.PartNumber == pn {
			return svc, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s has no service %s", entities.ErrNotFound, order.OrderNumber(), pn)
}
