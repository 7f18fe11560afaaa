package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/infrastructure/events"
	"github.com/vsinha/production/pkg/infrastructure/repositories/memory"
	fixtures "github.com/vsinha/production/pkg/infrastructure/testing"
	"github.com/vsinha/production/pkg/interfaces/cli/output"
)

// Builds three tables in the workshop, running short of legs on the way
func main() {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	store := memory.NewStore()
	products, lines := fixtures.BuildWorkshopCatalog()
	stock := map[entities.PartNumber]string{
		"BOARD":   "6",
		"LEG":     "8",
		"SCREW":   "100",
		"VARNISH": "1",
	}
	if err := fixtures.SeedStore(ctx, store, products, lines, fixtures.WorkshopBranch, stock); err != nil {
		fail(err)
	}

	bus := events.NewMemoryBus(logger)
	collector := &events.Collector{}
	bus.Subscribe(events.ProductionEventTypes, collector)

	svc := production.NewServiceWithConfig(store, production.ServiceConfig{Logger: logger, Events: bus})

	order, err := svc.CreateOrder(ctx, production.OrderRequest{
		Branch:      fixtures.WorkshopBranch,
		Description: "Three oak tables",
		Responsible: "Workshop lead",
	})
	if err != nil {
		fail(err)
	}
	table, err := svc.AddItem(ctx, order.ID, "TABLE", entities.Qty(3))
	if err != nil {
		fail(err)
	}
	if _, err := svc.PlanMaterials(ctx, order.ID); err != nil {
		fail(err)
	}

	// Only 8 of the 12 legs are on hand, so start reserves what it can
	if _, err := svc.StartProduction(ctx, order.ID); err != nil {
		fail(err)
	}

	if _, err := svc.Produce(ctx, order.ID, table.ID, entities.Qty(2)); err != nil {
		fail(err)
	}

	_, err = svc.Produce(ctx, order.ID, table.ID, entities.Qty(1))
	switch {
	case errors.Is(err, entities.ErrInsufficientStock):
		fmt.Printf("Third table blocked: %v\n", err)
	case err != nil:
		fail(err)
	}

	if err := svc.ReceiveStock(ctx, "LEG", fixtures.WorkshopBranch, entities.Qty(4)); err != nil {
		fail(err)
	}
	if _, err := svc.Produce(ctx, order.ID, table.ID, entities.Qty(1)); err != nil {
		fail(err)
	}

	report, err := svc.OrderReport(ctx, order.ID, true)
	if err != nil {
		fail(err)
	}
	output.WriteOrder(os.Stdout, report)

	bus.Wait()
	fmt.Printf("%d events published\n", len(collector.Events()))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
