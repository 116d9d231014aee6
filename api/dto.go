/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

QUANTITIES:
  Requests decode quantities into decimal.Decimal (accepts plain JSON
  numbers); integrality is enforced by the engine, not here. Responses
  render quantities as JSON numbers - quantities are integer-valued, so the
  float64 conversion is exact.

VALIDATION:
  Request structs carry validator tags; handlers run the shared validator
  before touching the engine.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/catalog"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/workflow"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductDTO struct {
	ID           string             `json:"id"`
	SKU          string             `json:"sku"`
	Name         string             `json:"name"`
	Category     string             `json:"category"`
	UoM          string             `json:"uom"`
	ReorderLevel int                `json:"reorderLevel"`
	TotalQty     float64            `json:"totalQty"`
	ByWarehouse  map[string]float64 `json:"byWarehouse"`
	CreatedAt    string             `json:"createdAt"`
}

type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required"`
	SKU          string          `json:"sku" validate:"required"`
	Category     string          `json:"category"`
	UoM          string          `json:"uom"`
	ReorderLevel int             `json:"reorderLevel"`
	InitialStock decimal.Decimal `json:"initialStock"`
	Warehouse    string          `json:"warehouse"`
}

type UpdateProductRequest struct {
	Name         *string `json:"name,omitempty"`
	Category     *string `json:"category,omitempty"`
	ReorderLevel *int    `json:"reorderLevel,omitempty"`
}

// =============================================================================
// WAREHOUSES & STOCK
// =============================================================================

type WarehouseDTO struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type CreateWarehouseRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

type StockLevelDTO struct {
	ProductID string  `json:"productId"`
	Warehouse string  `json:"warehouse"`
	Location  string  `json:"location"`
	Quantity  float64 `json:"quantity"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type ReceiptLineRequest struct {
	ProductID   string          `json:"productId" validate:"required"`
	Warehouse   string          `json:"warehouse"`
	Location    string          `json:"location"`
	QtyExpected decimal.Decimal `json:"qtyExpected"`
}

type CreateReceiptRequest struct {
	Supplier string               `json:"supplier"`
	Lines    []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type ReceiptLineDTO struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	Warehouse   string  `json:"warehouse"`
	Location    string  `json:"location"`
	QtyExpected float64 `json:"qtyExpected"`
	QtyReceived float64 `json:"qtyReceived"`
}

type ReceiptDTO struct {
	ID          string           `json:"id"`
	Supplier    string           `json:"supplier"`
	Status      string           `json:"status"`
	Lines       []ReceiptLineDTO `json:"lines"`
	CreatedAt   string           `json:"createdAt"`
	CompletedAt *string          `json:"completedAt,omitempty"`
}

type DeliveryLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Warehouse string `json:"warehouse"`
	Location  string `json:"location"`
}

type CreateDeliveryRequest struct {
	Customer string                `json:"customer"`
	Lines    []DeliveryLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type DeliveryLineDTO struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Warehouse string  `json:"warehouse"`
	Location  string  `json:"location"`
	QtyPicked float64 `json:"qtyPicked"`
	QtyPacked float64 `json:"qtyPacked"`
}

type DeliveryDTO struct {
	ID          string            `json:"id"`
	Customer    string            `json:"customer"`
	Status      string            `json:"status"`
	Lines       []DeliveryLineDTO `json:"lines"`
	CreatedAt   string            `json:"createdAt"`
	CompletedAt *string           `json:"completedAt,omitempty"`
}

// PickPackRequest sets a line's picked or packed quantity.
type PickPackRequest struct {
	LineID string          `json:"lineId" validate:"required"`
	Qty    decimal.Decimal `json:"qty"`
}

type TransferLineRequest struct {
	ProductID    string          `json:"productId" validate:"required"`
	Qty          decimal.Decimal `json:"qty"`
	FromLocation string          `json:"fromLocation"`
	ToLocation   string          `json:"toLocation"`
}

type CreateTransferRequest struct {
	FromWarehouse string                `json:"fromWarehouse" validate:"required"`
	ToWarehouse   string                `json:"toWarehouse" validate:"required"`
	Lines         []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type TransferLineDTO struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	Qty          float64 `json:"qty"`
	FromLocation string  `json:"fromLocation"`
	ToLocation   string  `json:"toLocation"`
}

type TransferDTO struct {
	ID            string            `json:"id"`
	FromWarehouse string            `json:"fromWarehouse"`
	ToWarehouse   string            `json:"toWarehouse"`
	Status        string            `json:"status"`
	Lines         []TransferLineDTO `json:"lines"`
	CreatedAt     string            `json:"createdAt"`
	CompletedAt   *string           `json:"completedAt,omitempty"`
}

type CreateAdjustmentRequest struct {
	ProductID  string          `json:"productId" validate:"required"`
	Warehouse  string          `json:"warehouse" validate:"required"`
	Location   string          `json:"location"`
	CountedQty decimal.Decimal `json:"countedQty"`
	Reason     string          `json:"reason"`
}

type AdjustmentDTO struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"productId"`
	Warehouse  string  `json:"warehouse"`
	Location   string  `json:"location"`
	CountedQty float64 `json:"countedQty"`
	Before     float64 `json:"before"`
	Change     float64 `json:"change"`
	Reason     string  `json:"reason"`
	CreatedAt  string  `json:"createdAt"`
}

// =============================================================================
// LEDGER
// =============================================================================

type LedgerEntryDTO struct {
	ID        string  `json:"id"`
	Seq       uint64  `json:"seq"`
	ProductID string  `json:"productId"`
	Warehouse string  `json:"warehouse"`
	Location  *string `json:"location"`
	Change    float64 `json:"change"`
	Before    float64 `json:"before"`
	After     float64 `json:"after"`
	DocType   string  `json:"docType"`
	DocID     *string `json:"docId"`
	CreatedAt string  `json:"createdAt"`
}

type VerifyDTO struct {
	Consistent bool   `json:"consistent"`
	Detail     string `json:"detail,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func qtyOut(q inventory.Quantity) float64 { return q.InexactFloat64() }

func timeOut(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func timePtrOut(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timeOut(*t)
	return &s
}

func toProductDTO(p workflow.ProductStock) ProductDTO {
	byWh := make(map[string]float64, len(p.ByWarehouse))
	for code, q := range p.ByWarehouse {
		byWh[string(code)] = qtyOut(q)
	}
	return ProductDTO{
		ID:           string(p.ID),
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		UoM:          p.UoM,
		ReorderLevel: p.ReorderLevel,
		TotalQty:     qtyOut(p.TotalQty),
		ByWarehouse:  byWh,
		CreatedAt:    timeOut(p.CreatedAt),
	}
}

func toWarehouseDTO(w catalog.Warehouse) WarehouseDTO {
	return WarehouseDTO{Code: string(w.Code), Name: w.Name, Address: w.Address}
}

func toStockLevelDTO(l inventory.StockLevel) StockLevelDTO {
	return StockLevelDTO{
		ProductID: string(l.ProductID),
		Warehouse: string(l.Warehouse),
		Location:  l.Location,
		Quantity:  qtyOut(l.Quantity),
	}
}

func toReceiptDTO(r workflow.Receipt) ReceiptDTO {
	dto := ReceiptDTO{
		ID:          string(r.ID),
		Supplier:    r.Supplier,
		Status:      string(r.Status),
		Lines:       make([]ReceiptLineDTO, 0, len(r.Lines)),
		CreatedAt:   timeOut(r.CreatedAt),
		CompletedAt: timePtrOut(r.CompletedAt),
	}
	for _, l := range r.Lines {
		dto.Lines = append(dto.Lines, ReceiptLineDTO{
			ID:          string(l.ID),
			ProductID:   string(l.ProductID),
			Warehouse:   string(l.Warehouse),
			Location:    l.Location,
			QtyExpected: qtyOut(l.QtyExpected),
			QtyReceived: qtyOut(l.QtyReceived),
		})
	}
	return dto
}

func toDeliveryDTO(d workflow.Delivery) DeliveryDTO {
	dto := DeliveryDTO{
		ID:          string(d.ID),
		Customer:    d.Customer,
		Status:      string(d.Status),
		Lines:       make([]DeliveryLineDTO, 0, len(d.Lines)),
		CreatedAt:   timeOut(d.CreatedAt),
		CompletedAt: timePtrOut(d.CompletedAt),
	}
	for _, l := range d.Lines {
		dto.Lines = append(dto.Lines, DeliveryLineDTO{
			ID:        string(l.ID),
			ProductID: string(l.ProductID),
			Warehouse: string(l.Warehouse),
			Location:  l.Location,
			QtyPicked: qtyOut(l.QtyPicked),
			QtyPacked: qtyOut(l.QtyPacked),
		})
	}
	return dto
}

func toTransferDTO(t workflow.Transfer) TransferDTO {
	dto := TransferDTO{
		ID:            string(t.ID),
		FromWarehouse: string(t.FromWarehouse),
		ToWarehouse:   string(t.ToWarehouse),
		Status:        string(t.Status),
		Lines:         make([]TransferLineDTO, 0, len(t.Lines)),
		CreatedAt:     timeOut(t.CreatedAt),
		CompletedAt:   timePtrOut(t.CompletedAt),
	}
	for _, l := range t.Lines {
		dto.Lines = append(dto.Lines, TransferLineDTO{
			ID:           string(l.ID),
			ProductID:    string(l.ProductID),
			Qty:          qtyOut(l.Qty),
			FromLocation: l.FromLocation,
			ToLocation:   l.ToLocation,
		})
	}
	return dto
}

func toAdjustmentDTO(a workflow.Adjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:         string(a.ID),
		ProductID:  string(a.ProductID),
		Warehouse:  string(a.Warehouse),
		Location:   a.Location,
		CountedQty: qtyOut(a.CountedQty),
		Before:     qtyOut(a.Before),
		Change:     qtyOut(a.Change),
		Reason:     a.Reason,
		CreatedAt:  timeOut(a.CreatedAt),
	}
}

func toLedgerEntryDTO(e inventory.LedgerEntry) LedgerEntryDTO {
	var docID *string
	if e.DocID != nil {
		s := string(*e.DocID)
		docID = &s
	}
	return LedgerEntryDTO{
		ID:        string(e.ID),
		Seq:       e.Seq,
		ProductID: string(e.ProductID),
		Warehouse: string(e.Warehouse),
		Location:  e.Location,
		Change:    qtyOut(e.Change),
		Before:    qtyOut(e.Before),
		After:     qtyOut(e.After),
		DocType:   string(e.DocType),
		DocID:     docID,
		CreatedAt: timeOut(e.CreatedAt),
	}
}
