package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	internalorders "github.com/hostelmart/hostelmart-backend/internal/orders"
	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

type stubService struct {
	placeFn   func(ctx context.Context, input internalorders.PlaceInput) (internalorders.PlaceResult, error)
	cancelFn  func(ctx context.Context, input internalorders.CancelInput) (models.Order, error)
	decideFn  func(ctx context.Context, id int64, action enums.AdminOrderAction) (models.Order, error)
	adjustFn  func(ctx context.Context, input internalorders.AdjustInput) (internalorders.AdjustResult, error)
	excludeFn func(ctx context.Context, input internalorders.ExcludeInput) (internalorders.ExcludeResult, error)
	orders    []models.Order
}

func (s *stubService) Place(ctx context.Context, input internalorders.PlaceInput) (internalorders.PlaceResult, error) {
	return s.placeFn(ctx, input)
}

func (s *stubService) CustomerCancel(ctx context.Context, input internalorders.CancelInput) (models.Order, error) {
	return s.cancelFn(ctx, input)
}

func (s *stubService) AdminDecision(ctx context.Context, id int64, action enums.AdminOrderAction) (models.Order, error) {
	return s.decideFn(ctx, id, action)
}

func (s *stubService) Adjust(ctx context.Context, input internalorders.AdjustInput) (internalorders.AdjustResult, error) {
	return s.adjustFn(ctx, input)
}

func (s *stubService) ExcludeMonth(ctx context.Context, input internalorders.ExcludeInput) (internalorders.ExcludeResult, error) {
	return s.excludeFn(ctx, input)
}

func (s *stubService) List(ctx context.Context) []models.Order {
	return s.orders
}

type stubGate struct{}

func (stubGate) Verify(password string) error {
	if password != "secret" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "wrong admin password")
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func post(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestPlaceMapsRequest(t *testing.T) {
	var got internalorders.PlaceInput
	svc := &stubService{placeFn: func(ctx context.Context, input internalorders.PlaceInput) (internalorders.PlaceResult, error) {
		got = input
		return internalorders.PlaceResult{OrderID: 1716200000000, CancelWindowMs: 120000, Order: models.Order{ID: 1716200000000, Total: decimal.NewFromInt(50)}}, nil
	}}

	w := post(Place(svc, testLogger()), `{"name":" Sam ","room":104,"hostel":"A","mode":"delivery","deliveryCharge":99,
		"items":[{"name":"Maggi","qty":"2"},{"name":"Oreo","qty":1,"price":15}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["status"] != "ok" || body["orderId"].(float64) != 1716200000000 || body["cancelWindowMs"].(float64) != 120000 {
		t.Fatalf("unexpected body %v", body)
	}
	if got.Name != "Sam" || got.Room != "104" || got.Mode != "delivery" || len(got.Items) != 2 {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Items[0].Qty.Value != 2 || got.Items[0].Price != nil {
		t.Fatalf("unexpected first item %+v", got.Items[0])
	}
	if got.Items[1].Price == nil || !got.Items[1].Price.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected second item %+v", got.Items[1])
	}
}

func TestPlaceMissingItemsReachesService(t *testing.T) {
	var got internalorders.PlaceInput
	svc := &stubService{placeFn: func(ctx context.Context, input internalorders.PlaceInput) (internalorders.PlaceResult, error) {
		got = input
		return internalorders.PlaceResult{}, pkgerrors.New(pkgerrors.CodeValidation, "items must be a list")
	}}
	w := post(Place(svc, testLogger()), `{"name":"Sam"}`)
	if w.Code != http.StatusBadRequest || got.Items != nil {
		t.Fatalf("expected 400 with nil items, got %d %+v", w.Code, got.Items)
	}
	if decode(t, w)["status"] != "VALIDATION_ERROR" {
		t.Fatal("expected VALIDATION_ERROR status string")
	}
}

func TestPlaceRejectsNonListItems(t *testing.T) {
	svc := &stubService{placeFn: func(ctx context.Context, input internalorders.PlaceInput) (internalorders.PlaceResult, error) {
		t.Fatal("service must not be called")
		return internalorders.PlaceResult{}, nil
	}}
	w := post(Place(svc, testLogger()), `{"items":"Maggi"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCancelParsesIDs(t *testing.T) {
	var got internalorders.CancelInput
	svc := &stubService{cancelFn: func(ctx context.Context, input internalorders.CancelInput) (models.Order, error) {
		got = input
		return models.Order{ID: input.OrderID, Status: enums.OrderStatusCancelled}, nil
	}}
	w := post(Cancel(svc, testLogger()), `{"orderId":"17","confirmOrderId":17}`)
	if w.Code != http.StatusOK || got.OrderID != 17 || got.ConfirmOrderID != 17 {
		t.Fatalf("unexpected result %d %+v", w.Code, got)
	}

	w = post(Cancel(svc, testLogger()), `{"orderId":"abc","confirmOrderId":17}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestCancelSurfacesConflicts(t *testing.T) {
	svc := &stubService{cancelFn: func(ctx context.Context, input internalorders.CancelInput) (models.Order, error) {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeCancelExpired, "cancel window has passed").
			WithDetails(map[string]any{"elapsedMs": 130000})
	}}
	w := post(Cancel(svc, testLogger()), `{"orderId":1,"confirmOrderId":1}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "CANCEL_WINDOW_EXPIRED" || body["details"] == nil {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAdminStatusRequiresPassword(t *testing.T) {
	called := false
	svc := &stubService{decideFn: func(ctx context.Context, id int64, action enums.AdminOrderAction) (models.Order, error) {
		called = true
		return models.Order{ID: id, Status: enums.OrderStatusAccepted}, nil
	}}
	handler := AdminStatus(svc, stubGate{}, testLogger())

	w := post(handler, `{"password":"nope","orderId":5,"action":"accept"}`)
	if w.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected 401 without service call, got %d", w.Code)
	}
	w = post(handler, `{"password":"secret","orderId":5,"action":"ship"}`)
	if w.Code != http.StatusBadRequest || called {
		t.Fatalf("expected 400 for unknown action, got %d", w.Code)
	}
	w = post(handler, `{"password":"secret","orderId":5,"action":"accept"}`)
	if w.Code != http.StatusOK || !called {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAdjustPassesTargets(t *testing.T) {
	var got internalorders.AdjustInput
	svc := &stubService{adjustFn: func(ctx context.Context, input internalorders.AdjustInput) (internalorders.AdjustResult, error) {
		got = input
		return internalorders.AdjustResult{Changed: true}, nil
	}}
	w := post(Adjust(svc, stubGate{}, testLogger()), `{"password":"secret","orderId":9,"items":{"Maggi":1,"Kurkure":"0"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.OrderID != 9 || got.Items["Maggi"].Value != 1 || !got.Items["Kurkure"].Numeric {
		t.Fatalf("unexpected input %+v", got)
	}
	if decode(t, w)["changed"] != true {
		t.Fatal("expected changed flag")
	}
}

func TestListReturnsRawArray(t *testing.T) {
	svc := &stubService{orders: []models.Order{{ID: 1}, {ID: 2}}}
	w := httptest.NewRecorder()
	List(svc, testLogger())(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	var body []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected two orders, got %v", body)
	}
}

func TestResetEndpointsSelectKind(t *testing.T) {
	var kinds []internalorders.ExclusionKind
	svc := &stubService{excludeFn: func(ctx context.Context, input internalorders.ExcludeInput) (internalorders.ExcludeResult, error) {
		kinds = append(kinds, input.Kind)
		return internalorders.ExcludeResult{Month: "2024-05", Flagged: 3}, nil
	}}
	w := post(ResetCustomerMoney(svc, stubGate{}, testLogger()), `{"password":"secret","month":"2024-05"}`)
	if w.Code != http.StatusOK || decode(t, w)["flagged"].(float64) != 3 {
		t.Fatalf("unexpected reset response %d", w.Code)
	}
	post(ResetProfit(svc, stubGate{}, testLogger()), `{"password":"secret"}`)
	if len(kinds) != 2 || kinds[0] != internalorders.ExcludeCustomerStats || kinds[1] != internalorders.ExcludeProfitStats {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}
