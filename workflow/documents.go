/*
Package workflow drives stock documents from Draft to Done.

PURPOSE:
  A document is a unit of intended stock change: a Receipt, Delivery,
  Transfer, or Adjustment. This file models each as its own struct with
  explicit required and optional fields, instead of one free-form shape
  validated deep inside the engine.

LIFECYCLE:
  Draft -> Done, at most once. Done is terminal: no field mutation, no
  re-completion. A completion request on a Done document fails with
  AlreadyCompleted and performs zero mutations.

  Adjustments are the degenerate case: the counted quantity and resulting
  delta are known at creation time, so they are created already resolved
  and have no Draft phase.

SEE ALSO:
  - store.go:  Document storage and the per-document completion guard
  - engine.go: Turning a completion into atomic stock deltas
*/
package workflow

import (
	"time"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusDraft Status = "Draft"
	StatusDone  Status = "Done"
)

type LineID string

// =============================================================================
// RECEIPT - Incoming goods
// =============================================================================

type ReceiptLine struct {
	ID          LineID
	ProductID   inventory.ProductID
	Warehouse   inventory.WarehouseCode
	Location    string
	QtyExpected inventory.Quantity
	QtyReceived inventory.Quantity // mirrors QtyExpected after completion; partial receiving is out of scope
}

type Receipt struct {
	ID          inventory.DocID
	Supplier    string
	Status      Status
	Lines       []ReceiptLine
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// =============================================================================
// DELIVERY - Outgoing goods with pick/pack steps
// =============================================================================

type DeliveryLine struct {
	ID        LineID
	ProductID inventory.ProductID
	Warehouse inventory.WarehouseCode
	Location  string
	QtyPicked inventory.Quantity
	QtyPacked inventory.Quantity
}

// Resolved returns the quantity a completion consumes: packed if set, else
// picked, else zero. Zero counts as unset, mirroring the system this
// replaces. The magnitude is taken as an absolute value; the engine negates
// it, so a sign-flipped input cannot turn a delivery into a receipt.
func (l DeliveryLine) Resolved() inventory.Quantity {
	if !l.QtyPacked.IsZero() {
		return l.QtyPacked.Abs()
	}
	return l.QtyPicked.Abs()
}

type Delivery struct {
	ID          inventory.DocID
	Customer    string
	Status      Status
	Lines       []DeliveryLine
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// =============================================================================
// TRANSFER - Internal move between warehouses
// =============================================================================

type TransferLine struct {
	ID           LineID
	ProductID    inventory.ProductID
	Qty          inventory.Quantity
	FromLocation string
	ToLocation   string
}

type Transfer struct {
	ID            inventory.DocID
	FromWarehouse inventory.WarehouseCode
	ToWarehouse   inventory.WarehouseCode
	Status        Status
	Lines         []TransferLine
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// =============================================================================
// ADJUSTMENT - Count correction, created already resolved
// =============================================================================

type Adjustment struct {
	ID         inventory.DocID
	ProductID  inventory.ProductID
	Warehouse  inventory.WarehouseCode
	Location   string
	CountedQty inventory.Quantity
	Before     inventory.Quantity
	Change     inventory.Quantity // CountedQty - Before, applied at creation
	Reason     string
	CreatedAt  time.Time
}
