/*
engine.go - Orchestrates document completion into atomic stock mutations

PURPOSE:
  The Engine is the top of the dependency order. It translates a document's
  completion into StockIndex deltas plus ledger entries, decides warehouse
  auto-creation, and exposes the full operation set consumed by the API
  layer.

FAILURE POLICY (all-or-nothing):
  Every line of a document is validated before any delta is applied; the
  validated batch then goes through StockIndex.ApplyBatch under one critical
  section. A document either applies completely or not at all. There is no
  partial application and therefore no rollback path.

COMPLETION FLOW:
  1. Acquire the document's completion guard
  2. Reject if status is already Done (zero mutations)
  3. Pre-validate all lines, ensure warehouses, build the delta batch
  4. ApplyBatch (quantities + ledger entries, atomically)
  5. Flip to Done

OVERDRAFT:
  The policy is explicit. AllowNegative (default) reproduces the historical
  behavior and logs a warning whenever a key goes negative; RejectNegative
  fails the completion with an OverdraftError before any mutation.
*/
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/stock-engine/catalog"
	"github.com/warp/stock-engine/inventory"
)

// DefaultWarehouse is assumed when a line names no warehouse.
const DefaultWarehouse = inventory.WarehouseCode("MAIN")

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Catalog   *catalog.Catalog
	Index     *inventory.StockIndex
	Ledger    inventory.Ledger
	Docs      *DocumentStore
	Overdraft inventory.OverdraftPolicy
	Log       *logrus.Logger

	now func() time.Time
}

func NewEngine(cat *catalog.Catalog, ix *inventory.StockIndex, ledger inventory.Ledger, docs *DocumentStore) *Engine {
	return &Engine{
		Catalog:   cat,
		Index:     ix,
		Ledger:    ledger,
		Docs:      docs,
		Overdraft: inventory.AllowNegative,
		Log:       logrus.StandardLogger(),
		now:       time.Now,
	}
}

// =============================================================================
// INPUTS
// =============================================================================

type ProductInput struct {
	SKU          string
	Name         string
	Category     string
	UoM          string
	ReorderLevel int

	// Optional opening stock, recorded as an init ledger entry.
	InitialStock inventory.Quantity
	Warehouse    string
}

type ReceiptLineInput struct {
	ProductID   string
	Warehouse   string
	Location    string
	QtyExpected inventory.Quantity
}

type DeliveryLineInput struct {
	ProductID string
	Warehouse string
	Location  string
}

type TransferLineInput struct {
	ProductID    string
	Qty          inventory.Quantity
	FromLocation string
	ToLocation   string
}

type AdjustmentInput struct {
	ProductID  string
	Warehouse  string
	Location   string
	CountedQty inventory.Quantity
	Reason     string
}

// ProductStock annotates a product with its derived stock projections.
type ProductStock struct {
	catalog.Product
	TotalQty    inventory.Quantity
	ByWarehouse map[inventory.WarehouseCode]inventory.Quantity
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (e *Engine) CreateProduct(ctx context.Context, in ProductInput) (catalog.Product, error) {
	if !inventory.IsIntegral(in.InitialStock) {
		return catalog.Product{}, &inventory.ValidationError{Field: "initialStock", Reason: "must be a whole number"}
	}

	p, err := e.Catalog.CreateProduct(catalog.NewProduct{
		SKU:          in.SKU,
		Name:         in.Name,
		Category:     in.Category,
		UoM:          in.UoM,
		ReorderLevel: in.ReorderLevel,
	})
	if err != nil {
		return catalog.Product{}, err
	}

	if !in.InitialStock.IsZero() {
		if _, err := e.InitStock(ctx, p.ID, in.Warehouse, "", in.InitialStock); err != nil {
			return catalog.Product{}, err
		}
	}
	return p, nil
}

// InitStock records opening stock as an init entry with no document id.
func (e *Engine) InitStock(ctx context.Context, productID inventory.ProductID, warehouse, location string, qty inventory.Quantity) (inventory.LedgerEntry, error) {
	if !e.Catalog.HasProduct(productID) {
		return inventory.LedgerEntry{}, &inventory.NotFoundError{Kind: "product", ID: string(productID)}
	}
	if !inventory.IsIntegral(qty) {
		return inventory.LedgerEntry{}, &inventory.ValidationError{Field: "quantity", Reason: "must be a whole number"}
	}
	wh := e.resolveWarehouse(warehouse)
	e.Catalog.EnsureWarehouse(wh)
	key := inventory.StockKey{ProductID: productID, Warehouse: wh, Location: location}
	return e.Index.ApplyDelta(ctx, key, qty, inventory.DocInit, nil)
}

func (e *Engine) ListProducts(ctx context.Context) []ProductStock {
	products := e.Catalog.Products()
	out := make([]ProductStock, 0, len(products))
	for _, p := range products {
		out = append(out, ProductStock{
			Product:     p,
			TotalQty:    e.Index.TotalStock(p.ID),
			ByWarehouse: e.Index.StockByWarehouse(p.ID),
		})
	}
	return out
}

func (e *Engine) UpdateProduct(ctx context.Context, id inventory.ProductID, upd catalog.ProductUpdate) (catalog.Product, error) {
	return e.Catalog.UpdateProduct(id, upd)
}

// DeleteProduct removes a product unless the ledger references it. History
// must stay explainable, so a referenced product can only be retired by
// renaming, never removed.
func (e *Engine) DeleteProduct(ctx context.Context, id inventory.ProductID) error {
	if _, err := e.Catalog.Product(id); err != nil {
		return err
	}
	referenced, err := e.Ledger.HasProduct(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return &inventory.ValidationError{Field: "product", Reason: "referenced by ledger entries"}
	}
	return e.Catalog.DeleteProduct(id)
}

// =============================================================================
// WAREHOUSES & STOCK VIEWS
// =============================================================================

func (e *Engine) CreateWarehouse(ctx context.Context, code, name, address string) (catalog.Warehouse, error) {
	return e.Catalog.CreateWarehouse(code, name, address)
}

func (e *Engine) ListWarehouses(ctx context.Context) []catalog.Warehouse {
	return e.Catalog.Warehouses()
}

func (e *Engine) Stock(ctx context.Context, productID inventory.ProductID) []inventory.StockLevel {
	return e.Index.LevelsFor(productID)
}

func (e *Engine) AllStock(ctx context.Context) []inventory.StockLevel {
	return e.Index.Levels()
}

// =============================================================================
// RECEIPTS
// =============================================================================

func (e *Engine) CreateReceipt(ctx context.Context, supplier string, lines []ReceiptLineInput) (Receipt, error) {
	if len(lines) == 0 {
		return Receipt{}, &inventory.ValidationError{Field: "lines", Reason: "required"}
	}

	r := Receipt{
		ID:        inventory.DocID(uuid.NewString()),
		Supplier:  supplier,
		Status:    StatusDraft,
		CreatedAt: e.now(),
	}
	for _, in := range lines {
		if err := e.checkLine(in.ProductID, in.QtyExpected); err != nil {
			return Receipt{}, err
		}
		if in.QtyExpected.IsNegative() {
			return Receipt{}, &inventory.ValidationError{Field: "qtyExpected", Reason: "must not be negative"}
		}
		r.Lines = append(r.Lines, ReceiptLine{
			ID:          LineID(uuid.NewString()),
			ProductID:   inventory.ProductID(in.ProductID),
			Warehouse:   e.resolveWarehouse(in.Warehouse),
			Location:    in.Location,
			QtyExpected: in.QtyExpected,
		})
	}
	e.Docs.PutReceipt(r)
	return r, nil
}

func (e *Engine) ListReceipts(ctx context.Context) []Receipt {
	return e.Docs.Receipts()
}

// ValidateReceipt completes a receipt: one positive delta per line, using
// the expected quantity.
func (e *Engine) ValidateReceipt(ctx context.Context, id inventory.DocID) (Receipt, error) {
	unlock := e.Docs.Lock(id)
	defer unlock()

	r, err := e.Docs.Receipt(id)
	if err != nil {
		return Receipt{}, err
	}
	if r.Status == StatusDone {
		return Receipt{}, &inventory.AlreadyCompletedError{DocType: inventory.DocReceipt, DocID: id}
	}

	docID := r.ID
	ops := make([]inventory.DeltaOp, 0, len(r.Lines))
	for _, line := range r.Lines {
		if err := e.checkLine(string(line.ProductID), line.QtyExpected); err != nil {
			return Receipt{}, err
		}
		e.Catalog.EnsureWarehouse(line.Warehouse)
		ops = append(ops, inventory.DeltaOp{
			Key:     inventory.StockKey{ProductID: line.ProductID, Warehouse: line.Warehouse, Location: line.Location},
			Delta:   line.QtyExpected,
			DocType: inventory.DocReceipt,
			DocID:   &docID,
		})
	}

	entries, err := e.Index.ApplyBatch(ctx, ops, e.Overdraft)
	if err != nil {
		return Receipt{}, err
	}
	e.warnNegative(entries)
	return e.Docs.CompleteReceipt(id, e.now())
}

// =============================================================================
// DELIVERIES
// =============================================================================

func (e *Engine) CreateDelivery(ctx context.Context, customer string, lines []DeliveryLineInput) (Delivery, error) {
	if len(lines) == 0 {
		return Delivery{}, &inventory.ValidationError{Field: "lines", Reason: "required"}
	}

	d := Delivery{
		ID:        inventory.DocID(uuid.NewString()),
		Customer:  customer,
		Status:    StatusDraft,
		CreatedAt: e.now(),
	}
	for _, in := range lines {
		if err := e.checkLine(in.ProductID, inventory.ZeroQty()); err != nil {
			return Delivery{}, err
		}
		d.Lines = append(d.Lines, DeliveryLine{
			ID:        LineID(uuid.NewString()),
			ProductID: inventory.ProductID(in.ProductID),
			Warehouse: e.resolveWarehouse(in.Warehouse),
			Location:  in.Location,
		})
	}
	e.Docs.PutDelivery(d)
	return d, nil
}

func (e *Engine) ListDeliveries(ctx context.Context) []Delivery {
	return e.Docs.Deliveries()
}

// PickLine overwrites a line's picked quantity on a Draft delivery.
func (e *Engine) PickLine(ctx context.Context, id inventory.DocID, lineID LineID, qty inventory.Quantity) (Delivery, error) {
	return e.setDeliveryQty(id, lineID, qty, false)
}

// PackLine overwrites a line's packed quantity on a Draft delivery.
func (e *Engine) PackLine(ctx context.Context, id inventory.DocID, lineID LineID, qty inventory.Quantity) (Delivery, error) {
	return e.setDeliveryQty(id, lineID, qty, true)
}

func (e *Engine) setDeliveryQty(id inventory.DocID, lineID LineID, qty inventory.Quantity, packed bool) (Delivery, error) {
	if !inventory.IsIntegral(qty) {
		return Delivery{}, &inventory.ValidationError{Field: "qty", Reason: "must be a whole number"}
	}
	unlock := e.Docs.Lock(id)
	defer unlock()
	return e.Docs.SetDeliveryLineQty(id, lineID, qty, packed)
}

// ValidateDelivery completes a delivery: one negative delta per line, using
// packed if set, else picked, else zero.
func (e *Engine) ValidateDelivery(ctx context.Context, id inventory.DocID) (Delivery, error) {
	unlock := e.Docs.Lock(id)
	defer unlock()

	d, err := e.Docs.Delivery(id)
	if err != nil {
		return Delivery{}, err
	}
	if d.Status == StatusDone {
		return Delivery{}, &inventory.AlreadyCompletedError{DocType: inventory.DocDelivery, DocID: id}
	}

	docID := d.ID
	ops := make([]inventory.DeltaOp, 0, len(d.Lines))
	for _, line := range d.Lines {
		qty := line.Resolved()
		if err := e.checkLine(string(line.ProductID), qty); err != nil {
			return Delivery{}, err
		}
		e.Catalog.EnsureWarehouse(line.Warehouse)
		ops = append(ops, inventory.DeltaOp{
			Key:     inventory.StockKey{ProductID: line.ProductID, Warehouse: line.Warehouse, Location: line.Location},
			Delta:   qty.Neg(),
			DocType: inventory.DocDelivery,
			DocID:   &docID,
		})
	}

	entries, err := e.Index.ApplyBatch(ctx, ops, e.Overdraft)
	if err != nil {
		return Delivery{}, err
	}
	e.warnNegative(entries)
	return e.Docs.CompleteDelivery(id, e.now())
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (e *Engine) CreateTransfer(ctx context.Context, from, to string, lines []TransferLineInput) (Transfer, error) {
	if from == "" || to == "" {
		return Transfer{}, &inventory.ValidationError{Field: "warehouse", Reason: "fromWarehouse and toWarehouse required"}
	}
	if len(lines) == 0 {
		return Transfer{}, &inventory.ValidationError{Field: "lines", Reason: "required"}
	}

	t := Transfer{
		ID:            inventory.DocID(uuid.NewString()),
		FromWarehouse: catalog.NormalizeCode(from),
		ToWarehouse:   catalog.NormalizeCode(to),
		Status:        StatusDraft,
		CreatedAt:     e.now(),
	}
	for _, in := range lines {
		if err := e.checkLine(in.ProductID, in.Qty); err != nil {
			return Transfer{}, err
		}
		t.Lines = append(t.Lines, TransferLine{
			ID:           LineID(uuid.NewString()),
			ProductID:    inventory.ProductID(in.ProductID),
			Qty:          in.Qty,
			FromLocation: in.FromLocation,
			ToLocation:   in.ToLocation,
		})
	}
	e.Docs.PutTransfer(t)
	return t, nil
}

func (e *Engine) ListTransfers(ctx context.Context) []Transfer {
	return e.Docs.Transfers()
}

// ExecuteTransfer completes a transfer: per line, a debit at the source key
// and an equal-magnitude credit at the destination key, both carrying the
// transfer's id so the ledger shows a paired move.
func (e *Engine) ExecuteTransfer(ctx context.Context, id inventory.DocID) (Transfer, error) {
	unlock := e.Docs.Lock(id)
	defer unlock()

	t, err := e.Docs.Transfer(id)
	if err != nil {
		return Transfer{}, err
	}
	if t.Status == StatusDone {
		return Transfer{}, &inventory.AlreadyCompletedError{DocType: inventory.DocTransfer, DocID: id}
	}

	e.Catalog.EnsureWarehouse(t.FromWarehouse)
	e.Catalog.EnsureWarehouse(t.ToWarehouse)

	docID := t.ID
	ops := make([]inventory.DeltaOp, 0, 2*len(t.Lines))
	for _, line := range t.Lines {
		qty := line.Qty.Abs()
		if err := e.checkLine(string(line.ProductID), qty); err != nil {
			return Transfer{}, err
		}
		ops = append(ops,
			inventory.DeltaOp{
				Key:     inventory.StockKey{ProductID: line.ProductID, Warehouse: t.FromWarehouse, Location: line.FromLocation},
				Delta:   qty.Neg(),
				DocType: inventory.DocTransfer,
				DocID:   &docID,
			},
			inventory.DeltaOp{
				Key:     inventory.StockKey{ProductID: line.ProductID, Warehouse: t.ToWarehouse, Location: line.ToLocation},
				Delta:   qty,
				DocType: inventory.DocTransfer,
				DocID:   &docID,
			},
		)
	}

	entries, err := e.Index.ApplyBatch(ctx, ops, e.Overdraft)
	if err != nil {
		return Transfer{}, err
	}
	e.warnNegative(entries)
	return e.Docs.CompleteTransfer(id, e.now())
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

// CreateAdjustment records a count correction. The delta is computed from
// the live quantity and applied in the same critical section, so a racing
// movement cannot skew the count.
func (e *Engine) CreateAdjustment(ctx context.Context, in AdjustmentInput) (Adjustment, error) {
	if in.ProductID == "" || in.Warehouse == "" {
		return Adjustment{}, &inventory.ValidationError{Field: "adjustment", Reason: "productId and warehouse required"}
	}
	if err := e.checkLine(in.ProductID, in.CountedQty); err != nil {
		return Adjustment{}, err
	}

	wh := catalog.NormalizeCode(in.Warehouse)
	e.Catalog.EnsureWarehouse(wh)

	id := inventory.DocID(uuid.NewString())
	key := inventory.StockKey{ProductID: inventory.ProductID(in.ProductID), Warehouse: wh, Location: in.Location}
	entry, err := e.Index.Reconcile(ctx, key, in.CountedQty, &id)
	if err != nil {
		return Adjustment{}, err
	}

	a := Adjustment{
		ID:         id,
		ProductID:  inventory.ProductID(in.ProductID),
		Warehouse:  wh,
		Location:   in.Location,
		CountedQty: in.CountedQty,
		Before:     entry.Before,
		Change:     entry.Change,
		Reason:     in.Reason,
		CreatedAt:  entry.CreatedAt,
	}
	e.Docs.PutAdjustment(a)
	return a, nil
}

func (e *Engine) ListAdjustments(ctx context.Context) []Adjustment {
	return e.Docs.Adjustments()
}

// =============================================================================
// LEDGER
// =============================================================================

// LedgerEntries returns the full ledger, newest first.
func (e *Engine) LedgerEntries(ctx context.Context) ([]inventory.LedgerEntry, error) {
	entries, err := e.Ledger.All(ctx)
	if err != nil {
		return nil, err
	}
	return inventory.NewestFirst(entries), nil
}

// VerifyLedger checks the replayability invariant against the live index.
func (e *Engine) VerifyLedger(ctx context.Context) error {
	return e.Index.Verify(ctx)
}

// =============================================================================
// HELPERS
// =============================================================================

func (e *Engine) resolveWarehouse(code string) inventory.WarehouseCode {
	if code == "" {
		return DefaultWarehouse
	}
	return catalog.NormalizeCode(code)
}

// checkLine is the shared per-line precondition: the product must exist and
// the quantity must be integer-valued.
func (e *Engine) checkLine(productID string, qty inventory.Quantity) error {
	if productID == "" {
		return &inventory.ValidationError{Field: "productId", Reason: "required"}
	}
	if !e.Catalog.HasProduct(inventory.ProductID(productID)) {
		return &inventory.NotFoundError{Kind: "product", ID: productID}
	}
	if !inventory.IsIntegral(qty) {
		return &inventory.ValidationError{Field: "qty", Reason: "must be a whole number"}
	}
	return nil
}

func (e *Engine) warnNegative(entries []inventory.LedgerEntry) {
	for _, entry := range entries {
		if entry.After.IsNegative() {
			e.Log.WithFields(logrus.Fields{
				"key":     entry.Key().String(),
				"after":   entry.After.String(),
				"docType": entry.DocType,
			}).Warn("stock went negative")
		}
	}
}
