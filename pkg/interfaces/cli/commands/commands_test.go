package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vsinha/production/pkg/application/dto"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/infrastructure/config"
	"github.com/vsinha/production/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/production/pkg/infrastructure/repositories/memory"
	fixtures "github.com/vsinha/production/pkg/infrastructure/testing"
)

const workshopScenario = "testdata/workshop"

func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: config.DriverMemory, Branch: string(fixtures.WorkshopBranch)},
		Log:   config.LogConfig{Level: "info", Format: "console"},
	}
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	app := NewAppWithStore(testConfig(), nil, memory.NewStore())
	var out bytes.Buffer
	app.Out = &out
	t.Cleanup(func() { app.Close() })
	return app, &out
}

func findOrder(t *testing.T, report *dto.ProductionReport, description string) *dto.OrderReport {
	t.Helper()
	for _, o := range report.Orders {
		if o.Description == description {
			return o
		}
	}
	t.Fatalf("order %q not in report", description)
	return nil
}

func TestScenarioRunner(t *testing.T) {
	ctx := context.Background()
	scenario, err := csv.NewLoader().LoadScenario(workshopScenario)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	app, _ := newTestApp(t)
	report, err := NewScenarioRunner(app.Service, nil, fixtures.WorkshopBranch).Run(ctx, scenario)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	tables := findOrder(t, report, "Two tables")
	if tables.Status != "Closed" {
		t.Errorf("Expected the table order to close once every unit was produced or lost, got %s", tables.Status)
	}
	if len(tables.Services) != 1 || tables.Services[0].PartNumber != "ASSEMBLY" {
		t.Errorf("Expected the ASSEMBLY service line, got %+v", tables.Services)
	}

	chairs := findOrder(t, report, "Four chairs")
	if chairs.Status != "Producing" {
		t.Errorf("Expected the chair order to stay Producing, got %s", chairs.Status)
	}
	for _, m := range chairs.Materials {
		if !m.Consumed.IsZero() {
			t.Errorf("Expected the failed produce to leave %s unconsumed, got %s", m.PartNumber, m.Consumed)
		}
		if m.PartNumber == "LEG" && !m.Allocated.Equal(entities.Qty(12)) {
			t.Errorf("Expected start to allocate the 12 LEG left, got %s", m.Allocated)
		}
	}

	if len(report.Failures) != 2 {
		t.Fatalf("Expected 2 rejected actions, got %+v", report.Failures)
	}
	if f := report.Failures[0]; f.Step != 8 || !strings.Contains(f.Error, "cannot produce 5 of CHAIR, only 4 remaining") {
		t.Errorf("unexpected first failure: %+v", f)
	}
	if f := report.Failures[1]; f.Step != 9 || f.Error != "insufficient stock: cannot allocate 4 of LEG, only 0 available" {
		t.Errorf("unexpected second failure: %+v", f)
	}

	want := map[entities.PartNumber]string{"TABLE": "1", "BOARD": "2", "LEG": "0", "SCREW": "36", "VARNISH": "1.5"}
	for _, b := range report.Balances {
		if q, ok := want[b.PartNumber]; ok && !b.Quantity.Equal(entities.MustQty(q)) {
			t.Errorf("Expected %s balance %s, got %s", b.PartNumber, q, b.Quantity)
		}
	}
}

func TestScenarioRunner_UnknownOrderRef(t *testing.T) {
	products, lines := fixtures.BuildSimpleCatalog()
	scenario := &csv.Scenario{
		Products: products,
		BOMLines: lines,
		Actions:  []csv.ActionRow{{Ref: "Z", Action: ActionStart}},
	}

	app, _ := newTestApp(t)
	_, err := NewScenarioRunner(app.Service, nil, fixtures.WorkshopBranch).Run(context.Background(), scenario)
	if err == nil || err.Error() != `action 1: unknown order reference "Z"` {
		t.Errorf("Expected unknown reference error, got %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	app, out := newTestApp(t)
	err := NewRunCommand(app, RunConfig{ScenarioDir: workshopScenario, Format: "json"}).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var report struct {
		Orders []struct {
			Number string `json:"number"`
			Status string `json:"status"`
		} `json:"orders"`
		Failures []dto.ActionFailure `json:"failures"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(report.Orders) != 2 || report.Orders[0].Number != "0001" || report.Orders[1].Status != "Producing" {
		t.Errorf("unexpected orders: %+v", report.Orders)
	}
	if len(report.Failures) != 2 {
		t.Errorf("Expected 2 failures, got %d", len(report.Failures))
	}
}

func TestRunCommand_Validation(t *testing.T) {
	app, _ := newTestApp(t)

	err := NewRunCommand(app, RunConfig{}).Execute(context.Background())
	if err == nil || err.Error() != "validation error: must specify -scenario directory" {
		t.Errorf("Expected validation error, got %v", err)
	}

	err = NewRunCommand(app, RunConfig{ScenarioDir: "testdata/missing"}).Execute(context.Background())
	if err == nil || err.Error() != "scenario directory not found: testdata/missing" {
		t.Errorf("Expected missing directory error, got %v", err)
	}
}

func TestOrderCommand(t *testing.T) {
	ctx := context.Background()
	app, out := newTestApp(t)
	products, lines := fixtures.BuildSimpleCatalog()
	if err := fixtures.SeedStore(ctx, app.Store, products, lines, fixtures.WorkshopBranch, map[entities.PartNumber]string{"BLANK": "6"}); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	cmd := NewOrderCommand(app)

	run := func(args ...string) string {
		t.Helper()
		out.Reset()
		if err := cmd.Execute(ctx, args); err != nil {
			t.Fatalf("order %v failed: %v", args, err)
		}
		return out.String()
	}

	if got := run("create", "-description", "widgets", "-responsible", "Ana"); !strings.HasPrefix(got, "Created order 0001") {
		t.Fatalf("unexpected create output: %q", got)
	}
	run("add-item", "-order", "1", "-product", "WIDGET", "-qty", "4")
	run("plan", "-order", "1")
	run("start", "-order", "1")

	got := run("produce", "-order", "1", "-product", "WIDGET", "-qty", "4")
	if !strings.Contains(got, "Order 0001 [Closed] widgets") {
		t.Errorf("Expected the order to close after producing everything:\n%s", got)
	}

	got = run("list", "-status", "Closed")
	if !strings.Contains(got, "0001") || !strings.Contains(got, "Closed") {
		t.Errorf("Expected the closed order in the list:\n%s", got)
	}

	got = run("show", "-order", "1", "-history")
	if !strings.Contains(got, "Produced") || !strings.Contains(got, "Consumed") {
		t.Errorf("Expected history in show output:\n%s", got)
	}

	tests := []struct {
		args    []string
		wantErr string
	}{
		{[]string{"plan"}, "order plan: -order is required"},
		{[]string{"show", "-order", "9"}, "not found"},
		{[]string{"add-item", "-order", "1"}, "order add-item: -product is required"},
		{[]string{"produce", "-order", "1", "-product", "WIDGET", "-qty", "1"}, "production order is closed"},
		{[]string{"explode", "-order", "1"}, "unknown order command: explode"},
		{[]string{"consume", "-order", "1", "-product", "NOPE", "-qty", "1"}, "order 0001 has no material NOPE"},
	}
	for _, tt := range tests {
		err := cmd.Execute(ctx, tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("order %v: expected error containing %q, got %v", tt.args, tt.wantErr, err)
		}
	}
}

func TestStockCommand(t *testing.T) {
	ctx := context.Background()
	app, out := newTestApp(t)
	products, lines := fixtures.BuildSimpleCatalog()
	if err := fixtures.SeedStore(ctx, app.Store, products, lines, fixtures.WorkshopBranch, nil); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	cmd := NewStockCommand(app)

	if err := cmd.Execute(ctx, []string{"receive", "-product", "BLANK", "-qty", "2.5"}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if got := out.String(); got != "Received 2.5 of BLANK at WORKSHOP, balance is 2.5\n" {
		t.Errorf("unexpected receive output: %q", got)
	}

	out.Reset()
	if err := cmd.Execute(ctx, []string{"show", "-product", "BLANK"}); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out.String(), "BLANK") || !strings.Contains(out.String(), "2.5") {
		t.Errorf("unexpected show output:\n%s", out.String())
	}

	err := cmd.Execute(ctx, []string{"receive", "-product", "BLANK"})
	if err == nil || err.Error() != "stock receive: -product and -qty are required" {
		t.Errorf("Expected missing flag error, got %v", err)
	}
}

func TestMainHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := Main(context.Background(), []string{"help"}, &stdout, &stderr); err != nil {
		t.Fatalf("Main help failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "production <command> [flags]") {
		t.Errorf("unexpected help output:\n%s", stdout.String())
	}
}
