package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/pricing"
	"storefront/internal/receipt"
	"storefront/internal/registers"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	log := zap.NewNop()

	cat := catalog.New(log)
	dir := registers.New()

	engine, err := pricing.NewEngine(cat, 7, 0.15)
	require.NoError(t, err)

	persistence := receipt.NewFilePersistence(config.ReceiptConfig{
		OutputDir:                t.TempDir(),
		MaxRetryAttempts:         2,
		RetryDelay:               time.Millisecond,
		FatalDirCreationFailure:  true,
		CreateMissingDirectories: true,
	}, log)
	ledger := receipt.NewStore(persistence, log)

	svc, err := service.NewStoreService(cat, dir, engine, ledger, 0.20, 0.30, log)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewStoreHandler(svc, log).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func addMilk(t *testing.T, router http.Handler, quantity int) ProductResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/products", AddProductRequest{
		Name:           "Milk",
		DeliveryPrice:  2.00,
		Category:       "FOOD",
		ExpirationDate: time.Now().AddDate(0, 0, 5).Format(dateLayout),
		Quantity:       quantity,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var p ProductResponse
	decodeBody(t, rec, &p)
	return p
}

func hireAndAssign(t *testing.T, router http.Handler, register int) CashierResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/cashiers", AddCashierRequest{
		Name:          "John",
		MonthlySalary: 1000.00,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var c CashierResponse
	decodeBody(t, rec, &c)

	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/registers/%d/cashier", register),
		AssignCashierRequest{CashierID: c.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	return c
}

func TestSaleFlow(t *testing.T) {
	router := newTestRouter(t)

	milk := addMilk(t, router, 10)
	hireAndAssign(t, router, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", CreateSaleRequest{
		RegisterNumber: 1,
		Items:          []SaleItemRequest{{ProductID: milk.ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var issued ReceiptResponse
	decodeBody(t, rec, &issued)
	assert.Equal(t, int64(1), issued.Number)
	assert.Equal(t, "John", issued.Cashier.Name)
	require.Len(t, issued.Items, 1)
	assert.Equal(t, "2.04", issued.Items[0].UnitPrice)
	assert.Equal(t, "4.08", issued.Total)

	// Stock reflects the sale.
	rec = doJSON(t, router, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []ProductResponse
	decodeBody(t, rec, &products)
	require.Len(t, products, 1)
	assert.Equal(t, 8, products[0].Quantity)
}

func TestAddProductValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/products", AddProductRequest{
		Name:           "", // required
		DeliveryPrice:  2.00,
		Category:       "FOOD",
		ExpirationDate: "2026-01-01",
		Quantity:       1,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name")
}

func TestAddProductRejectsUnknownCategory(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/products", AddProductRequest{
		Name:           "Milk",
		DeliveryPrice:  2.00,
		Category:       "FROZEN",
		ExpirationDate: "2026-01-01",
		Quantity:       1,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSaleWithoutCashierConflicts(t *testing.T) {
	router := newTestRouter(t)
	milk := addMilk(t, router, 10)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", CreateSaleRequest{
		RegisterNumber: 3,
		Items:          []SaleItemRequest{{ProductID: milk.ID, Quantity: 1}},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateSaleInsufficientQuantityConflicts(t *testing.T) {
	router := newTestRouter(t)

	milk := addMilk(t, router, 10)
	hireAndAssign(t, router, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", CreateSaleRequest{
		RegisterNumber: 1,
		Items:          []SaleItemRequest{{ProductID: milk.ID, Quantity: 20}},
	})

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Details map[string]interface{} `json:"details"`
	}
	decodeBody(t, rec, &resp)
	assert.EqualValues(t, 20, resp.Details["requested"])
	assert.EqualValues(t, 10, resp.Details["available"])
}

func TestCreateSaleEmptyBasketRejected(t *testing.T) {
	router := newTestRouter(t)
	hireAndAssign(t, router, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", CreateSaleRequest{
		RegisterNumber: 1,
		Items:          []SaleItemRequest{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignSecondCashierToTakenRegister(t *testing.T) {
	router := newTestRouter(t)
	hireAndAssign(t, router, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/cashiers", AddCashierRequest{
		Name:          "Anna",
		MonthlySalary: 1200.00,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var anna CashierResponse
	decodeBody(t, rec, &anna)

	rec = doJSON(t, router, http.MethodPost, "/api/registers/1/cashier",
		AssignCashierRequest{CashierID: anna.ID})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetReceiptNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/receipts/42", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadReceiptFromFile(t *testing.T) {
	router := newTestRouter(t)

	milk := addMilk(t, router, 10)
	hireAndAssign(t, router, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", CreateSaleRequest{
		RegisterNumber: 1,
		Items:          []SaleItemRequest{{ProductID: milk.ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/receipts/1/file", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded ReceiptResponse
	decodeBody(t, rec, &loaded)
	assert.Equal(t, int64(1), loaded.Number)
	assert.Equal(t, "4.08", loaded.Total)
}

func TestSummaryReport(t *testing.T) {
	router := newTestRouter(t)

	milk := addMilk(t, router, 10)
	hireAndAssign(t, router, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", CreateSaleRequest{
		RegisterNumber: 1,
		Items:          []SaleItemRequest{{ProductID: milk.ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var s SummaryResponse
	decodeBody(t, rec, &s)
	assert.Equal(t, "4.08", s.Revenue)
	assert.Equal(t, "20.00", s.DeliveryExpenses)
	assert.Equal(t, "1000.00", s.SalaryExpenses)
	assert.Equal(t, "-15.92", s.Income)
	assert.Equal(t, "-1015.92", s.Profit)
	assert.Equal(t, 1, s.ReceiptCount)
}
