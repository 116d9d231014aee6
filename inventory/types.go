/*
Package inventory provides the core stock ledger engine.

PURPOSE:
  This package contains the types and algorithms for tracking product
  quantities across warehouse locations. Every quantity change flows through
  a single mutation path and is recorded as an immutable ledger entry, so
  the full history of any stock bucket can always be replayed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Quantity: An exact decimal amount (integer-valued by validation)
  - StockKey: Composite identity (product, warehouse, location)
  - LedgerEntry: An immutable record of one quantity change
  - DocType: Which kind of document caused a change

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never modified, only appended
  2. Precision: Uses decimal.Decimal so before + change == after exactly
  3. Replayability: Ledger history alone determines current state
  4. Type Safety: Strong typing for IDs prevents mixing product/doc ids

SEE ALSO:
  - ledger.go: Append-only ledger persistence interface
  - index.go: Authoritative quantity index and the sole mutation path
  - replay.go: Rebuilding and verifying the index from the ledger
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// QUANTITY - Exact stock amount
// =============================================================================

// Quantity is an exact decimal stock amount. Quantities entering the system
// must be integer-valued (fractional input is rejected at validation);
// decimals keep ledger arithmetic exact regardless.
type Quantity = decimal.Decimal

func Qty(n int64) Quantity { return decimal.NewFromInt(n) }

func ZeroQty() Quantity { return decimal.Zero }

// IsIntegral reports whether q carries no fractional part.
func IsIntegral(q Quantity) bool { return q.IsInteger() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type WarehouseCode string
type DocID string
type EntryID string

// =============================================================================
// STOCK KEY - Composite identity of one quantity bucket
// =============================================================================

// StockKey addresses one quantity bucket. Location is free-form; the empty
// string is the valid "default" location.
type StockKey struct {
	ProductID ProductID
	Warehouse WarehouseCode
	Location  string
}

func (k StockKey) String() string {
	return string(k.ProductID) + "::" + string(k.Warehouse) + "::" + k.Location
}

// StockLevel is a read-only view of one bucket's current quantity.
type StockLevel struct {
	ProductID ProductID
	Warehouse WarehouseCode
	Location  string
	Quantity  Quantity
}

// =============================================================================
// DOC TYPE - Origin of a ledger entry
// =============================================================================

type DocType string

const (
	DocInit       DocType = "init"       // Opening stock (product creation, seed)
	DocReceipt    DocType = "receipt"    // Incoming goods
	DocDelivery   DocType = "delivery"   // Outgoing goods
	DocTransfer   DocType = "transfer"   // Internal warehouse move
	DocAdjustment DocType = "adjustment" // Count correction
)

// =============================================================================
// LEDGER ENTRY - Immutable audit record of one quantity change
// =============================================================================

// LedgerEntry records a single applied delta with its before/after values.
//
// INVARIANTS:
//   - After == Before + Change, always
//   - Seq is the total creation order across all keys
//   - Replaying a key's entries in Seq order from 0 reproduces its live quantity
type LedgerEntry struct {
	ID        EntryID
	Seq       uint64
	ProductID ProductID
	Warehouse WarehouseCode
	Location  *string // nil means unspecified (stored under the default location)
	Change    Quantity
	Before    Quantity
	After     Quantity
	DocType   DocType
	DocID     *DocID // nil for system-seeded (init) entries
	CreatedAt time.Time
}

// Key returns the stock bucket this entry belongs to.
func (e LedgerEntry) Key() StockKey {
	loc := ""
	if e.Location != nil {
		loc = *e.Location
	}
	return StockKey{ProductID: e.ProductID, Warehouse: e.Warehouse, Location: loc}
}

// NewestFirst returns a reversed copy of entries for display. The input is
// expected in creation order and is not modified.
func NewestFirst(entries []LedgerEntry) []LedgerEntry {
	out := make([]LedgerEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
