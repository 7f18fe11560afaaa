package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/production/pkg/interfaces/cli/output"
)

// RunConfig holds configuration for the run command
type RunConfig struct {
	ScenarioDir string
	OutputDir   string
	Format      string
	Verbose     bool
	Help        bool
}

// RunCommand plays a CSV scenario against its app's service and reports the
// resulting orders and stock. Main always gives it a fresh in-memory store.
type RunCommand struct {
	app    *App
	config RunConfig
}

func NewRunCommand(app *App, config RunConfig) *RunCommand {
	return &RunCommand{app: app, config: config}
}

// ParseRunConfig reads the run command's flags
func ParseRunConfig(args []string, stderr io.Writer) (RunConfig, error) {
	var cfg RunConfig
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.ScenarioDir, "scenario", "", "Path to scenario directory containing CSV files")
	fs.StringVar(&cfg.OutputDir, "output", "", "Output directory for results (optional)")
	fs.StringVar(&cfg.Format, "format", "text", "Output format: text, json, csv, xlsx")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&cfg.Help, "help", false, "Show help message")
	err := fs.Parse(args)
	return cfg, err
}

// Execute runs the scenario
func (c *RunCommand) Execute(ctx context.Context) error {
	out := c.app.Out
	if c.config.Help {
		c.showHelp(out)
		return nil
	}

	if c.config.ScenarioDir == "" {
		return fmt.Errorf("validation error: must specify -scenario directory")
	}
	if _, err := os.Stat(c.config.ScenarioDir); os.IsNotExist(err) {
		return fmt.Errorf("scenario directory not found: %s", c.config.ScenarioDir)
	}

	if c.config.Verbose {
		fmt.Fprintf(out, "Production Ledger CLI\n")
		fmt.Fprintf(out, "Scenario: %s\n", c.config.ScenarioDir)
		fmt.Fprintf(out, "Output format: %s\n\n", c.config.Format)
		fmt.Fprintln(out, "Loading data from CSV files...")
	}

	scenario, err := csv.NewLoader().LoadScenario(c.config.ScenarioDir)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(out, "Data loaded successfully:\n")
		fmt.Fprintf(out, "  Products: %d\n", len(scenario.Products))
		fmt.Fprintf(out, "  BOM Lines: %d\n", len(scenario.BOMLines))
		fmt.Fprintf(out, "  Stock Rows: %d\n", len(scenario.Stock))
		fmt.Fprintf(out, "  Order Lines: %d\n", len(scenario.Orders))
		fmt.Fprintf(out, "  Actions: %d\n\n", len(scenario.Actions))
	}

	runner := NewScenarioRunner(c.app.Service, c.app.Logger, entities.BranchID(c.app.Config.Store.Branch))
	report, err := runner.Run(ctx, scenario)
	if err != nil {
		return fmt.Errorf("error running scenario: %w", err)
	}

	err = output.Generate(report, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintln(out, "Scenario complete!")
	}
	return nil
}

func (c *RunCommand) showHelp(w io.Writer) {
	fmt.Fprint(w, `USAGE:
    production run -scenario <directory> [-format text|json|csv|xlsx] [-output <dir>]

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── products.csv    # Product master data (required)
    ├── bom.csv         # Bills of materials
    ├── stock.csv       # Opening balances
    ├── orders.csv      # Production orders and their lines
    └── actions.csv     # Steps to play against the orders

CSV FILE FORMATS:

products.csv:
    part_number,description,kind,unit_of_measure
    TABLE,Dining table,Storable,EA
    ASSEMBLY,Assembly labour,Service,H

bom.csv:
    parent_pn,child_pn,qty_per,find_number
    TABLE,BOARD,2,10

stock.csv:
    part_number,branch,quantity
    BOARD,WORKSHOP,40

orders.csv:
    order_ref,branch,description,line_type,part_number,quantity
    A,WORKSHOP,March tables,item,TABLE,4
    A,WORKSHOP,March tables,service,ASSEMBLY,2

actions.csv:
    order_ref,action,target,quantity
    A,plan,,
    A,start,,
    A,produce,TABLE,2

ACTIONS:
    plan, wait, start, finalize               order level, no target
    allocate                                  target material, quantity optional
    consume, lose-material                    target material
    produce, lose                             target item
`)
}
