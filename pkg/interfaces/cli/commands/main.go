package commands

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/infrastructure/config"
	"github.com/vsinha/production/pkg/infrastructure/logging"
	"github.com/vsinha/production/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/production/pkg/infrastructure/repositories/memory"
)

const usage = `Production ledger CLI

USAGE:
    production <command> [flags]

COMMANDS:
    run      Play a CSV scenario on an in-memory store and report the result
    migrate  Create or update the database schema
    seed     Load a scenario's catalog, stock and orders into the store
    serve    Serve the HTTP API
    order    Manage production orders (production order -h)
    stock    Show or receive stock
    help     Show this help message

Configuration is read from config.yaml, .env and the environment
(STORE_DRIVER, STORE_BRANCH, DB_HOST, DB_EMBEDDED, LOG_LEVEL, ...).
`

// Main dispatches a command line. It loads configuration and opens the
// configured store for every command that needs one.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "-help" {
		fmt.Fprint(stdout, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cmd, rest := args[0], args[1:]
	if cmd == "run" {
		runCfg, err := ParseRunConfig(rest, stderr)
		if err != nil {
			return err
		}
		app := NewAppWithStore(cfg, logger, memory.NewStore())
		defer app.Close()
		app.Out = stdout
		return NewRunCommand(app, runCfg).Execute(ctx)
	}

	switch cmd {
	case "migrate", "seed", "serve", "order", "stock":
	default:
		return fmt.Errorf("unknown command: %s\n\n%s", cmd, usage)
	}

	if cmd == "migrate" && cfg.Store.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate needs STORE_DRIVER=%s", config.DriverPostgres)
	}
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Out = stdout

	switch cmd {
	case "migrate":
		// NewApp already migrated
		logger.Info("database schema is up to date")
		return nil
	case "seed":
		return seed(ctx, app, rest, stderr)
	case "serve":
		return NewServeCommand(app).Execute(ctx)
	}

	if !app.Persistent() {
		logger.Warn("using the in-memory store, changes are lost on exit", zap.String("command", cmd))
	}
	if cmd == "order" {
		return NewOrderCommand(app).Execute(ctx, rest)
	}
	return NewStockCommand(app).Execute(ctx, rest)
}

func seed(ctx context.Context, app *App, args []string, stderr io.Writer) error {
	runCfg, err := ParseRunConfig(args, stderr)
	if err != nil {
		return err
	}
	if runCfg.ScenarioDir == "" {
		return fmt.Errorf("seed: -scenario is required")
	}
	scenario, err := csv.NewLoader().LoadScenario(runCfg.ScenarioDir)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}
	runner := NewScenarioRunner(app.Service, app.Logger, entities.BranchID(app.Config.Store.Branch))
	orders, _, err := runner.Seed(ctx, scenario)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Seeded %d products, %d BOM lines, %d stock rows and %d orders\n",
		len(scenario.Products), len(scenario.BOMLines), len(scenario.Stock), len(orders))
	return nil
}
