package csv

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsinha/production/pkg/domain/entities"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ProductsFile, `part_number,description,kind,unit_of_measure
TABLE,Dining table,storable,ea
BOARD,Oak board,storable,ea
ASSEMBLY,Assembly labour,service,h
`)
	writeFile(t, dir, BOMFile, `parent_pn,child_pn,qty_per,find_number
TABLE,BOARD,2,10
`)
	writeFile(t, dir, StockFile, `part_number,branch,quantity
BOARD,WORKSHOP,7.5
`)
	writeFile(t, dir, OrdersFile, `order_ref,branch,description,line_type,part_number,quantity
A,WORKSHOP,Tables,item,TABLE,3
A,WORKSHOP,Tables,Service,ASSEMBLY,2
`)
	writeFile(t, dir, ActionsFile, `order_ref,action,target,quantity
A,plan,,
A,START,,
A,allocate,BOARD,
A,produce,TABLE,1
`)

	scenario, err := NewLoader().LoadScenario(dir)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	if len(scenario.Products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(scenario.Products))
	}
	if scenario.Products[2].Kind != entities.ServiceProduct {
		t.Errorf("expected ASSEMBLY to be a service, got %v", scenario.Products[2].Kind)
	}

	if len(scenario.BOMLines) != 1 || !scenario.BOMLines[0].QtyPer.Equal(entities.Qty(2)) {
		t.Errorf("unexpected BOM lines: %+v", scenario.BOMLines)
	}
	if scenario.BOMLines[0].FindNumber != 10 {
		t.Errorf("expected find number 10, got %d", scenario.BOMLines[0].FindNumber)
	}

	if len(scenario.Stock) != 1 || !scenario.Stock[0].Quantity.Equal(entities.MustQty("7.5")) {
		t.Errorf("unexpected stock rows: %+v", scenario.Stock)
	}

	if len(scenario.Orders) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(scenario.Orders))
	}
	if scenario.Orders[1].LineType != ServiceLine {
		t.Errorf("expected line type to be normalised to service, got %s", scenario.Orders[1].LineType)
	}

	if len(scenario.Actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(scenario.Actions))
	}
	if scenario.Actions[1].Action != "start" {
		t.Errorf("expected action to be lower-cased, got %s", scenario.Actions[1].Action)
	}
	if scenario.Actions[2].Quantity != nil {
		t.Errorf("expected empty quantity to stay nil, got %s", scenario.Actions[2].Quantity)
	}
	if q := scenario.Actions[3].Quantity; q == nil || !q.Equal(entities.Qty(1)) {
		t.Errorf("expected produce quantity 1, got %v", q)
	}
}

func TestLoadScenario_OptionalFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ProductsFile, `part_number,description,kind,unit_of_measure
BLANK,Steel blank,storable,kg
`)

	scenario, err := NewLoader().LoadScenario(dir)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if len(scenario.BOMLines) != 0 || len(scenario.Stock) != 0 || len(scenario.Orders) != 0 || len(scenario.Actions) != 0 {
		t.Errorf("expected only products, got %+v", scenario)
	}

	_, err = NewLoader().LoadScenario(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected missing products file to fail with ErrNotExist, got %v", err)
	}
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		load    func(l *Loader, path string) error
		wantErr string
	}{
		{
			name:    "header mismatch",
			file:    ProductsFile,
			content: "pn,description,kind,unit_of_measure\nA,a,storable,ea\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadProducts(p); return err },
			wantErr: "products CSV header mismatch",
		},
		{
			name:    "header only",
			file:    StockFile,
			content: "part_number,branch,quantity\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadStock(p); return err },
			wantErr: "stock CSV must have header and at least one data row",
		},
		{
			name:    "unknown kind",
			file:    ProductsFile,
			content: "part_number,description,kind,unit_of_measure\nA,a,gadget,ea\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadProducts(p); return err },
			wantErr: "products CSV row 2: unknown product kind: gadget",
		},
		{
			name:    "bad find number",
			file:    BOMFile,
			content: "parent_pn,child_pn,qty_per,find_number\nA,B,1,x\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadBOM(p); return err },
			wantErr: "BOM CSV row 2: invalid find_number",
		},
		{
			name:    "negative stock",
			file:    StockFile,
			content: "part_number,branch,quantity\nA,MAIN,1\nB,MAIN,-2\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadStock(p); return err },
			wantErr: "stock CSV row 3: quantity cannot be negative, got -2",
		},
		{
			name:    "missing branch",
			file:    StockFile,
			content: "part_number,branch,quantity\nA,,1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadStock(p); return err },
			wantErr: "stock CSV row 2: branch cannot be empty",
		},
		{
			name:    "bad line type",
			file:    OrdersFile,
			content: "order_ref,branch,description,line_type,part_number,quantity\nA,MAIN,x,widget,A,1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadOrders(p); return err },
			wantErr: "orders CSV row 2: invalid line_type: widget",
		},
		{
			name:    "bad action quantity",
			file:    ActionsFile,
			content: "order_ref,action,target,quantity\nA,produce,A,lots\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadActions(p); return err },
			wantErr: `actions CSV row 2: invalid quantity "lots"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			err := tt.load(NewLoader(), path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
