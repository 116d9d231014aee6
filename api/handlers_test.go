package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/api"
	"github.com/warp/stock-engine/catalog"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
	"github.com/warp/stock-engine/workflow"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ledger := store.NewMemory()
	index := inventory.NewStockIndex(ledger)
	engine := workflow.NewEngine(catalog.New(), index, ledger, workflow.NewDocumentStore())
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(engine)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// createProduct posts a product and returns its id.
func createProduct(t *testing.T, srv *httptest.Server, sku string, initial float64) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]any{
		"name": sku, "sku": sku, "initialStock": initial,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p map[string]any
	decodeInto(t, resp, &p)
	return p["id"].(string)
}

// =============================================================================
// HEALTH & PRODUCTS
// =============================================================================

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateProduct_ReturnsAnnotatedDTO(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]any{
		"name": "Steel Rod", "sku": "SR-001", "category": "Raw", "uom": "kg",
		"reorderLevel": 10, "initialStock": 200,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p map[string]any
	decodeInto(t, resp, &p)
	assert.Equal(t, "SR-001", p["sku"])
	assert.Equal(t, "kg", p["uom"])
	assert.Equal(t, float64(200), p["totalQty"])
	assert.Equal(t, float64(200), p["byWarehouse"].(map[string]any)["MAIN"])
}

func TestCreateProduct_MissingName_Returns400(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]any{"sku": "SR-001"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	decodeInto(t, resp, &body)
	assert.NotEmpty(t, body["error"])
}

func TestCreateProduct_DuplicateSKU_Returns400(t *testing.T) {
	srv := newTestServer(t)
	createProduct(t, srv, "SR-001", 0)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]any{
		"name": "Other", "sku": "SR-001",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// DOCUMENT FLOW OVER HTTP
// =============================================================================

func TestReceiptFlow_AutoCreatesWarehouse(t *testing.T) {
	srv := newTestServer(t)
	pid := createProduct(t, srv, "SR-001", 0)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/receipts", map[string]any{
		"supplier": "ACME",
		"lines":    []map[string]any{{"productId": pid, "warehouse": "new", "qtyExpected": 25}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt map[string]any
	decodeInto(t, resp, &receipt)
	assert.Equal(t, "Draft", receipt["status"])

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/receipts/"+receipt["id"].(string)+"/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var done map[string]any
	decodeInto(t, resp, &done)
	assert.Equal(t, "Done", done["status"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/warehouses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var warehouses []map[string]any
	decodeInto(t, resp, &warehouses)
	codes := map[string]bool{}
	for _, w := range warehouses {
		codes[w["code"].(string)] = true
	}
	assert.True(t, codes["NEW"])
}

func TestValidateReceipt_Twice_Returns409(t *testing.T) {
	srv := newTestServer(t)
	pid := createProduct(t, srv, "SR-001", 0)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/receipts", map[string]any{
		"lines": []map[string]any{{"productId": pid, "qtyExpected": 5}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt map[string]any
	decodeInto(t, resp, &receipt)
	url := srv.URL + "/api/receipts/" + receipt["id"].(string) + "/validate"

	resp = doJSON(t, http.MethodPost, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, url, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestValidateReceipt_Unknown_Returns404(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/receipts/no-such-doc/validate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeliveryFlow_PickThenValidate(t *testing.T) {
	srv := newTestServer(t)
	pid := createProduct(t, srv, "P1", 200)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/deliveries", map[string]any{
		"customer": "Customer A",
		"lines":    []map[string]any{{"productId": pid}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var delivery map[string]any
	decodeInto(t, resp, &delivery)
	id := delivery["id"].(string)
	lineID := delivery["lines"].([]any)[0].(map[string]any)["id"].(string)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/deliveries/"+id+"/pick", map[string]any{
		"lineId": lineID, "qty": 30,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/deliveries/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/stocks/"+pid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var levels []map[string]any
	decodeInto(t, resp, &levels)
	require.Len(t, levels, 1)
	assert.Equal(t, float64(170), levels[0]["quantity"])
}

func TestAdjustmentOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	pid := createProduct(t, srv, "CH-082", 42)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/adjustments", map[string]any{
		"productId": pid, "warehouse": "MAIN", "countedQty": 50, "reason": "cycle count",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var adj map[string]any
	decodeInto(t, resp, &adj)
	assert.Equal(t, float64(42), adj["before"])
	assert.Equal(t, float64(8), adj["change"])
}

// =============================================================================
// LEDGER & SEED
// =============================================================================

func TestGetLedger_NewestFirst(t *testing.T) {
	srv := newTestServer(t)
	pid := createProduct(t, srv, "P1", 100)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/adjustments", map[string]any{
		"productId": pid, "warehouse": "MAIN", "countedQty": 90,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []map[string]any
	decodeInto(t, resp, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "adjustment", entries[0]["docType"])
	assert.Equal(t, "init", entries[1]["docType"])
}

func TestVerifyLedger_Consistent(t *testing.T) {
	srv := newTestServer(t)
	createProduct(t, srv, "P1", 10)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/ledger/verify", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeInto(t, resp, &body)
	assert.Equal(t, true, body["consistent"])
}

func TestLoadSeed_PopulatesCatalogAndStock(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/seed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []map[string]any
	decodeInto(t, resp, &products)
	require.Len(t, products, 3)

	bySKU := map[string]map[string]any{}
	for _, p := range products {
		bySKU[p["sku"].(string)] = p
	}
	require.Contains(t, bySKU, "SR-001")
	assert.Equal(t, float64(320), bySKU["SR-001"]["totalQty"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/ledger/verify", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
