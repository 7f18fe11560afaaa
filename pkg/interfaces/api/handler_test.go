package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/infrastructure/repositories/memory"
	fixtures "github.com/vsinha/production/pkg/infrastructure/testing"
)

const branch = fixtures.WorkshopBranch

func setupRouter(t *testing.T, stock map[entities.PartNumber]string) *gin.Engine {
	t.Helper()
	store := memory.NewStore()
	products, lines := fixtures.BuildSimpleCatalog()
	if err := fixtures.SeedStore(context.Background(), store, products, lines, branch, stock); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	svc := production.NewServiceWithConfig(store, production.ServiceConfig{
		Clock: func() time.Time { return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC) },
	})
	return NewRouter(svc, nil, gin.TestMode)
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not JSON: %v: %s", err, w.Body.String())
	}
	return result
}

// expect checks the HTTP status and envelope code and returns the data field
func expect(t *testing.T, w *httptest.ResponseRecorder, status, code int) map[string]interface{} {
	t.Helper()
	if w.Code != status {
		t.Fatalf("Expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	resp := parseResponse(t, w)
	if got := int(resp["code"].(float64)); got != code {
		t.Fatalf("Expected code %d, got %d: %v", code, got, resp["message"])
	}
	data, _ := resp["data"].(map[string]interface{})
	return data
}

func createOrder(t *testing.T, r *gin.Engine, itemQty int) (string, string) {
	t.Helper()
	order := expect(t, doRequest(r, "POST", "/api/v1/orders", gin.H{"branch": branch, "description": "widgets"}), 201, 0)
	orderID := order["id"].(string)

	item := expect(t, doRequest(r, "POST", "/api/v1/orders/"+orderID+"/items",
		gin.H{"part_number": "WIDGET", "quantity": itemQty}), 201, 0)
	return orderID, item["id"].(string)
}

func TestOrderLifecycle(t *testing.T) {
	r := setupRouter(t, map[entities.PartNumber]string{"BLANK": "10"})
	orderID, itemID := createOrder(t, r, 10)
	base := "/api/v1/orders/" + orderID

	planned := expect(t, doRequest(r, "POST", base+"/plan", nil), 200, 0)
	materials := planned["materials"].([]interface{})
	if len(materials) != 1 {
		t.Fatalf("Expected one planned material, got %d", len(materials))
	}

	expect(t, doRequest(r, "POST", base+"/start", nil), 200, 0)

	report := expect(t, doRequest(r, "GET", base, nil), 200, 0)
	if report["status"] != "Producing" {
		t.Errorf("Expected status Producing, got %v", report["status"])
	}
	material := report["materials"].([]interface{})[0].(map[string]interface{})
	if material["allocated"] != "10" || material["stock_quantity"] != "0" {
		t.Errorf("Expected BLANK allocated 10 with no stock left, got %v", material)
	}

	expect(t, doRequest(r, "POST", base+"/items/"+itemID+"/produce", gin.H{"quantity": 11}), 422, CodePrecondition)
	expect(t, doRequest(r, "POST", base+"/items/"+itemID+"/produce", gin.H{}), 400, CodeBadRequest)
	expect(t, doRequest(r, "POST", base+"/items/"+itemID+"/produce", gin.H{"quantity": "10"}), 200, 0)

	report = expect(t, doRequest(r, "GET", base+"?history=true", nil), 200, 0)
	if report["status"] != "Closed" {
		t.Errorf("Expected status Closed, got %v", report["status"])
	}
	if history := report["history"].([]interface{}); len(history) != 2 {
		t.Errorf("Expected produced and consumed history entries, got %d", len(history))
	}

	expect(t, doRequest(r, "POST", base+"/items/"+itemID+"/produce", gin.H{"quantity": 1}), 409, CodeOrderClosed)

	closed := expect(t, doRequest(r, "POST", base+"/finalize", nil), 200, 0)
	if closed["closed"] != true {
		t.Errorf("Expected finalize on a closed order to report closed, got %v", closed)
	}

	balance := expect(t, doRequest(r, "GET", "/api/v1/stock/WIDGET/"+string(branch), nil), 200, 0)
	if balance["quantity"] != "10" {
		t.Errorf("Expected 10 WIDGET in stock, got %v", balance["quantity"])
	}
}

func TestAllocateInsufficientStock(t *testing.T) {
	r := setupRouter(t, map[entities.PartNumber]string{"BLANK": "3"})
	orderID, _ := createOrder(t, r, 5)
	base := "/api/v1/orders/" + orderID

	material := expect(t, doRequest(r, "POST", base+"/materials", gin.H{"part_number": "BLANK", "quantity": 5}), 201, 0)
	materialPath := base + "/materials/" + material["id"].(string)

	w := doRequest(r, "POST", materialPath+"/allocate", gin.H{"quantity": 5})
	expect(t, w, 409, CodeInsufficientStock)
	want := "insufficient stock: cannot allocate 5 of BLANK, only 3 available"
	if msg := parseResponse(t, w)["message"]; msg != want {
		t.Errorf("Expected message %q, got %q", want, msg)
	}

	allocated := expect(t, doRequest(r, "POST", materialPath+"/allocate", nil), 200, 0)
	if allocated["allocated"] != "3" {
		t.Errorf("Expected auto allocation to take the 3 available, got %v", allocated["allocated"])
	}
	stock := expect(t, doRequest(r, "GET", materialPath+"/stock", nil), 200, 0)
	if stock["stock_quantity"] != "0" {
		t.Errorf("Expected no BLANK left at the branch, got %v", stock["stock_quantity"])
	}

	expect(t, doRequest(r, "POST", materialPath+"/consume", gin.H{"quantity": 6}), 422, CodeOverConsumption)
}

func TestRequestErrors(t *testing.T) {
	r := setupRouter(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   int
	}{
		{"bad order id", "GET", "/api/v1/orders/not-a-uuid", nil, 400, CodeBadRequest},
		{"unknown order", "GET", "/api/v1/orders/00000000-0000-0000-0000-000000000001", nil, 404, CodeNotFound},
		{"missing branch", "POST", "/api/v1/orders", gin.H{"description": "x"}, 400, CodeBadRequest},
		{"bad status filter", "GET", "/api/v1/orders?status=Paused", nil, 400, CodeBadRequest},
		{"unknown product", "POST", "/api/v1/stock/receive", gin.H{"part_number": "NOPE", "branch": branch, "quantity": 1}, 404, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect(t, doRequest(r, tt.method, tt.path, tt.body), tt.status, tt.code)
		})
	}
}

func TestReceiveAndListStock(t *testing.T) {
	r := setupRouter(t, nil)

	received := expect(t, doRequest(r, "POST", "/api/v1/stock/receive",
		gin.H{"part_number": "BLANK", "branch": branch, "quantity": "2.5"}), 200, 0)
	if received["quantity"] != "2.5" {
		t.Errorf("Expected balance 2.5, got %v", received["quantity"])
	}

	list := expect(t, doRequest(r, "GET", "/api/v1/stock?branch="+string(branch), nil), 200, 0)
	if items := list["items"].([]interface{}); len(items) != 1 {
		t.Errorf("Expected one balance, got %d", len(items))
	}
}

func TestExportOrder(t *testing.T) {
	r := setupRouter(t, nil)
	orderID, _ := createOrder(t, r, 1)

	w := doRequest(r, "GET", "/api/v1/orders/"+orderID+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", ct)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Errorf("expected a zip payload")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: order 0001", entities.ErrNotFound), CodeNotFound},
		{fmt.Errorf("%w: BLANK", entities.ErrInsufficientStock), CodeInsufficientStock},
		{entities.ErrOrderClosed, CodeOrderClosed},
		{entities.ErrInvalidTransition, CodeInvalidTransition},
		{entities.ErrNotStorable, CodeNotStorable},
		{entities.ErrOverConsumption, CodeOverConsumption},
		{entities.ErrOverLoss, CodeOverLoss},
		{entities.ErrPrecondition, CodePrecondition},
		{errors.New("connection reset"), CodeInternal},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
