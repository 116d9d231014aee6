/*
handlers.go - HTTP API handlers for the stock ledger engine

PURPOSE:
  Exposes the engine via REST. Handlers parse and validate the request,
  delegate to the engine, and serialize the result. No stock logic lives
  here.

ERROR HANDLING:
  Engine errors are classified, never rewritten:
  - 400: ValidationError (and request-shape validation failures)
  - 404: NotFound
  - 409: AlreadyCompleted, OverdraftRisk (benign for retries)
  - 500: InternalInconsistency and everything unexpected

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - seed.go: Demo data loader
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/stock-engine/catalog"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/workflow"
)

// =============================================================================
// HANDLER
// =============================================================================

type Handler struct {
	Engine   *workflow.Engine
	Validate *validator.Validate
	Log      *logrus.Logger
}

func NewHandler(engine *workflow.Engine) *Handler {
	return &Handler{
		Engine:   engine,
		Validate: validator.New(),
		Log:      engine.Log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PRODUCTS
// =============================================================================

// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.Engine.ListProducts(r.Context())
	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Engine.CreateProduct(r.Context(), workflow.ProductInput{
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		UoM:          req.UoM,
		ReorderLevel: req.ReorderLevel,
		InitialStock: req.InitialStock,
		Warehouse:    req.Warehouse,
	})
	if err != nil {
		h.fail(w, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(workflow.ProductStock{
		Product:     p,
		TotalQty:    h.Engine.Index.TotalStock(p.ID),
		ByWarehouse: h.Engine.Index.StockByWarehouse(p.ID),
	}))
}

// PUT /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := inventory.ProductID(chi.URLParam(r, "id"))
	p, err := h.Engine.UpdateProduct(r.Context(), id, catalog.ProductUpdate{
		Name:         req.Name,
		Category:     req.Category,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		h.fail(w, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(workflow.ProductStock{
		Product:     p,
		TotalQty:    h.Engine.Index.TotalStock(p.ID),
		ByWarehouse: h.Engine.Index.StockByWarehouse(p.ID),
	}))
}

// DELETE /api/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := inventory.ProductID(chi.URLParam(r, "id"))
	if err := h.Engine.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, "Failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WAREHOUSES
// =============================================================================

// GET /api/warehouses
func (h *Handler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses := h.Engine.ListWarehouses(r.Context())
	dtos := make([]WarehouseDTO, 0, len(warehouses))
	for _, wh := range warehouses {
		dtos = append(dtos, toWarehouseDTO(wh))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/warehouses
func (h *Handler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req CreateWarehouseRequest
	if !h.decode(w, r, &req) {
		return
	}
	wh, err := h.Engine.CreateWarehouse(r.Context(), req.Code, req.Name, req.Address)
	if err != nil {
		h.fail(w, "Failed to create warehouse", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWarehouseDTO(wh))
}

// =============================================================================
// STOCK
// =============================================================================

// GET /api/stocks
func (h *Handler) ListAllStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStockLevelDTOs(h.Engine.AllStock(r.Context())))
}

// GET /api/stocks/{productId}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id := inventory.ProductID(chi.URLParam(r, "productId"))
	writeJSON(w, http.StatusOK, toStockLevelDTOs(h.Engine.Stock(r.Context(), id)))
}

func toStockLevelDTOs(levels []inventory.StockLevel) []StockLevelDTO {
	dtos := make([]StockLevelDTO, 0, len(levels))
	for _, l := range levels {
		dtos = append(dtos, toStockLevelDTO(l))
	}
	return dtos
}

// =============================================================================
// RECEIPTS
// =============================================================================

// POST /api/receipts
func (h *Handler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req CreateReceiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	lines := make([]workflow.ReceiptLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, workflow.ReceiptLineInput{
			ProductID:   l.ProductID,
			Warehouse:   l.Warehouse,
			Location:    l.Location,
			QtyExpected: l.QtyExpected,
		})
	}
	rc, err := h.Engine.CreateReceipt(r.Context(), req.Supplier, lines)
	if err != nil {
		h.fail(w, "Failed to create receipt", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReceiptDTO(rc))
}

// GET /api/receipts
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts := h.Engine.ListReceipts(r.Context())
	dtos := make([]ReceiptDTO, 0, len(receipts))
	for _, rc := range receipts {
		dtos = append(dtos, toReceiptDTO(rc))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/receipts/{id}/validate
func (h *Handler) ValidateReceipt(w http.ResponseWriter, r *http.Request) {
	id := inventory.DocID(chi.URLParam(r, "id"))
	rc, err := h.Engine.ValidateReceipt(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to validate receipt", err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptDTO(rc))
}

// =============================================================================
// DELIVERIES
// =============================================================================

// POST /api/deliveries
func (h *Handler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	var req CreateDeliveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	lines := make([]workflow.DeliveryLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, workflow.DeliveryLineInput{
			ProductID: l.ProductID,
			Warehouse: l.Warehouse,
			Location:  l.Location,
		})
	}
	d, err := h.Engine.CreateDelivery(r.Context(), req.Customer, lines)
	if err != nil {
		h.fail(w, "Failed to create delivery", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeliveryDTO(d))
}

// GET /api/deliveries
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries := h.Engine.ListDeliveries(r.Context())
	dtos := make([]DeliveryDTO, 0, len(deliveries))
	for _, d := range deliveries {
		dtos = append(dtos, toDeliveryDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PUT /api/deliveries/{id}/pick
func (h *Handler) PickLine(w http.ResponseWriter, r *http.Request) {
	h.pickOrPack(w, r, false)
}

// PUT /api/deliveries/{id}/pack
func (h *Handler) PackLine(w http.ResponseWriter, r *http.Request) {
	h.pickOrPack(w, r, true)
}

func (h *Handler) pickOrPack(w http.ResponseWriter, r *http.Request, packed bool) {
	var req PickPackRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := inventory.DocID(chi.URLParam(r, "id"))
	var (
		d   workflow.Delivery
		err error
	)
	if packed {
		d, err = h.Engine.PackLine(r.Context(), id, workflow.LineID(req.LineID), req.Qty)
	} else {
		d, err = h.Engine.PickLine(r.Context(), id, workflow.LineID(req.LineID), req.Qty)
	}
	if err != nil {
		h.fail(w, "Failed to update delivery line", err)
		return
	}
	writeJSON(w, http.StatusOK, toDeliveryDTO(d))
}

// POST /api/deliveries/{id}/validate
func (h *Handler) ValidateDelivery(w http.ResponseWriter, r *http.Request) {
	id := inventory.DocID(chi.URLParam(r, "id"))
	d, err := h.Engine.ValidateDelivery(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to validate delivery", err)
		return
	}
	writeJSON(w, http.StatusOK, toDeliveryDTO(d))
}

// =============================================================================
// TRANSFERS
// =============================================================================

// POST /api/transfers
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req CreateTransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	lines := make([]workflow.TransferLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, workflow.TransferLineInput{
			ProductID:    l.ProductID,
			Qty:          l.Qty,
			FromLocation: l.FromLocation,
			ToLocation:   l.ToLocation,
		})
	}
	t, err := h.Engine.CreateTransfer(r.Context(), req.FromWarehouse, req.ToWarehouse, lines)
	if err != nil {
		h.fail(w, "Failed to create transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferDTO(t))
}

// GET /api/transfers
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers := h.Engine.ListTransfers(r.Context())
	dtos := make([]TransferDTO, 0, len(transfers))
	for _, t := range transfers {
		dtos = append(dtos, toTransferDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/transfers/{id}/execute
func (h *Handler) ExecuteTransfer(w http.ResponseWriter, r *http.Request) {
	id := inventory.DocID(chi.URLParam(r, "id"))
	t, err := h.Engine.ExecuteTransfer(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to execute transfer", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferDTO(t))
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

// POST /api/adjustments
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req CreateAdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.Engine.CreateAdjustment(r.Context(), workflow.AdjustmentInput{
		ProductID:  req.ProductID,
		Warehouse:  req.Warehouse,
		Location:   req.Location,
		CountedQty: req.CountedQty,
		Reason:     req.Reason,
	})
	if err != nil {
		h.fail(w, "Failed to create adjustment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdjustmentDTO(a))
}

// GET /api/adjustments
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	adjustments := h.Engine.ListAdjustments(r.Context())
	dtos := make([]AdjustmentDTO, 0, len(adjustments))
	for _, a := range adjustments {
		dtos = append(dtos, toAdjustmentDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER
// =============================================================================

// GET /api/ledger (newest first)
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Engine.LedgerEntries(r.Context())
	if err != nil {
		h.fail(w, "Failed to load ledger", err)
		return
	}
	dtos := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toLedgerEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/ledger/verify
func (h *Handler) VerifyLedger(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.VerifyLedger(r.Context()); err != nil {
		if errors.Is(err, inventory.ErrInconsistency) {
			h.Log.WithError(err).Error("ledger verification failed")
			writeJSON(w, http.StatusInternalServerError, VerifyDTO{Consistent: false, Detail: err.Error()})
			return
		}
		h.fail(w, "Failed to verify ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyDTO{Consistent: true})
}

// POST /api/scenarios/seed
func (h *Handler) LoadSeed(w http.ResponseWriter, r *http.Request) {
	if err := Seed(r.Context(), h.Engine); err != nil {
		h.fail(w, "Failed to load seed data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses the body and runs struct validation. Writes the error
// response itself and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error(message)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case inventory.IsClientError(err):
		return http.StatusBadRequest
	case inventory.IsNotFound(err):
		return http.StatusNotFound
	case inventory.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
