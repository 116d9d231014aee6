/*
ledger.go - Append-only ledger persistence interface

PURPOSE:
  The Ledger is the system of record for all stock changes. The StockIndex's
  current values are a derived cache that must always equal the fold of the
  ledger's entries per key.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, entries cannot be modified
  3. ORDERED: All() returns entries in creation (Seq) order
  4. PAIRED: Entries are written in the same critical section as the index
     mutation they describe (the index owns that discipline, see index.go)

CORRECTIONS:
  A mistaken movement is not edited away. A counting adjustment records a
  new compensating entry; both remain in the ledger and the history stays
  explainable.

IMPLEMENTATIONS:
  - inventory/store/memory.go: In-memory (default)
  - store/sqlite/sqlite.go:    SQLite-backed, survives restarts

SEE ALSO:
  - index.go: The only writer
  - replay.go: Folding entries back into quantities
*/
package inventory

import "context"

// Ledger persists ledger entries. Append-only: corrections are made via
// compensating entries, never edits.
type Ledger interface {
	// Append persists one entry. This and AppendBatch are the ONLY writes.
	Append(ctx context.Context, entry LedgerEntry) error

	// AppendBatch persists multiple entries atomically. Used when a document
	// completion applies several deltas (multi-line, transfer debit/credit).
	// Either all are written or none are.
	AppendBatch(ctx context.Context, entries []LedgerEntry) error

	// All returns every entry in creation order. Read-only.
	All(ctx context.Context) ([]LedgerEntry, error)

	// ForProduct returns the entries referencing a product, in creation
	// order. Read-only.
	ForProduct(ctx context.Context, productID ProductID) ([]LedgerEntry, error)

	// HasProduct reports whether any entry references the product. Used for
	// the referential-integrity guard on product deletion.
	HasProduct(ctx context.Context, productID ProductID) (bool, error)
}
