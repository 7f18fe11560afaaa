package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/application/dto"
	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/infrastructure/repositories/csv"
)

// ScenarioRunner loads a CSV scenario into a production service and plays
// its actions
type ScenarioRunner struct {
	svc           *production.Service
	logger        *zap.Logger
	defaultBranch entities.BranchID
}

func NewScenarioRunner(svc *production.Service, logger *zap.Logger, defaultBranch entities.BranchID) *ScenarioRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioRunner{svc: svc, logger: logger, defaultBranch: defaultBranch}
}

// Seed saves the catalog and opening stock, then creates the orders.
// It returns order IDs by scenario reference.
func (r *ScenarioRunner) Seed(ctx context.Context, scenario *csv.Scenario) (map[string]uuid.UUID, []string, error) {
	if err := r.svc.LoadCatalog(ctx, scenario.Products, scenario.BOMLines); err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	for _, row := range scenario.Stock {
		if row.Quantity.IsZero() {
			continue
		}
		if err := r.svc.ReceiveStock(ctx, row.PartNumber, row.Branch, row.Quantity); err != nil {
			return nil, nil, fmt.Errorf("failed to receive %s of %s at %s: %w", row.Quantity, row.PartNumber, row.Branch, err)
		}
	}

	orders := make(map[string]uuid.UUID)
	var refs []string
	for _, row := range scenario.Orders {
		orderID, ok := orders[row.Ref]
		if !ok {
			branch := row.Branch
			if branch == "" {
				branch = r.defaultBranch
			}
			order, err := r.svc.CreateOrder(ctx, production.OrderRequest{Branch: branch, Description: row.Description})
			if err != nil {
				return nil, nil, fmt.Errorf("order %s: %w", row.Ref, err)
			}
			orderID = order.ID
			orders[row.Ref] = orderID
			refs = append(refs, row.Ref)
		}

		var err error
		switch row.LineType {
		case csv.ItemLine:
			_, err = r.svc.AddItem(ctx, orderID, row.PartNumber, row.Quantity)
		case csv.MaterialLine:
			_, err = r.svc.AddMaterial(ctx, orderID, row.PartNumber, row.Quantity)
		case csv.ServiceLine:
			_, err = r.svc.AddService(ctx, orderID, row.PartNumber, row.Quantity)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("order %s: failed to add %s %s: %w", row.Ref, row.LineType, row.PartNumber, err)
		}
	}
	return orders, refs, nil
}

// Run seeds the scenario and plays its actions in file order. A rejected
// action is reported and leaves its order untouched; the run goes on.
func (r *ScenarioRunner) Run(ctx context.Context, scenario *csv.Scenario) (*dto.ProductionReport, error) {
	start := time.Now()

	orders, refs, err := r.Seed(ctx, scenario)
	if err != nil {
		return nil, err
	}

	report := &dto.ProductionReport{}
	for i, action := range scenario.Actions {
		orderID, ok := orders[action.Ref]
		if !ok {
			return nil, fmt.Errorf("action %d: unknown order reference %q", i+1, action.Ref)
		}
		if err := applyAction(ctx, r.svc, orderID, action.Action, action.Target, action.Quantity); err != nil {
			r.logger.Debug("scenario action rejected",
				zap.String("order_ref", action.Ref),
				zap.String("action", action.Action),
				zap.Error(err))
			report.Failures = append(report.Failures, dto.ActionFailure{
				OrderRef: action.Ref,
				Step:     i + 1,
				Action:   action.Action,
				Target:   string(action.Target),
				Error:    err.Error(),
			})
		}
	}

	for _, ref := range refs {
		orderReport, err := r.svc.OrderReport(ctx, orders[ref], true)
		if err != nil {
			return nil, fmt.Errorf("failed to report order %s: %w", ref, err)
		}
		report.Orders = append(report.Orders, orderReport)
	}
	if report.Balances, err = r.svc.ListBalances(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	report.Elapsed = time.Since(start)
	return report, nil
}
