/*
index.go - Authoritative current-quantity index

PURPOSE:
  StockIndex owns the quantity-by-key map and is the single authorized
  mutation path for stock. Every applied delta updates the map and appends
  the matching LedgerEntry inside one critical section, so a reader can
  never observe a quantity without its entry or an entry without its effect.

CONCURRENCY:
  One RWMutex guards the whole index (quantities + ledger append + sequence
  counter). Per-key locking buys nothing here: mutations are in-memory
  arithmetic plus an append, so hold times are bounded and tiny. The lock
  also makes a document's multi-line batch trivially all-or-nothing.

OVERDRAFT:
  The index itself has no error path for deltas; a negative result is
  allowed at this layer. Callers that want to forbid negative outcomes pass
  RejectNegative to ApplyBatch, which checks the batch's final per-key
  quantities inside the same critical section before anything is applied.

SEE ALSO:
  - ledger.go: Where the paired entries go
  - replay.go: Rebuild and verification
  - projection.go: Derived read-only views
*/
package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// OVERDRAFT POLICY
// =============================================================================

// OverdraftPolicy decides whether a batch may leave a key negative.
type OverdraftPolicy int

const (
	// AllowNegative applies unconditionally, matching the historical
	// behavior of the system this engine replaces.
	AllowNegative OverdraftPolicy = iota

	// RejectNegative fails the whole batch, before any mutation, if any
	// key's resulting quantity would be negative.
	RejectNegative
)

// =============================================================================
// DELTA OP - One intended quantity change
// =============================================================================

// DeltaOp describes one delta for ApplyBatch. Ops of one batch share a
// document identity (transfer debit and credit carry the same DocID).
type DeltaOp struct {
	Key     StockKey
	Delta   Quantity
	DocType DocType
	DocID   *DocID
}

// =============================================================================
// STOCK INDEX
// =============================================================================

type StockIndex struct {
	mu         sync.RWMutex
	quantities map[StockKey]Quantity
	ledger     Ledger
	seq        uint64
	now        func() time.Time
}

func NewStockIndex(ledger Ledger) *StockIndex {
	return &StockIndex{
		quantities: make(map[StockKey]Quantity),
		ledger:     ledger,
		now:        time.Now,
	}
}

// Get returns the current quantity for a key, zero if absent.
func (ix *StockIndex) Get(key StockKey) Quantity {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if q, ok := ix.quantities[key]; ok {
		return q
	}
	return ZeroQty()
}

// ApplyDelta atomically reads, mutates and records one quantity change.
// There is no error path for the delta itself; only ledger persistence can
// fail, in which case the quantity is left untouched.
func (ix *StockIndex) ApplyDelta(ctx context.Context, key StockKey, delta Quantity, docType DocType, docID *DocID) (LedgerEntry, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entry := ix.entryLocked(key, delta, docType, docID)
	if err := ix.ledger.Append(ctx, entry); err != nil {
		return LedgerEntry{}, err
	}
	ix.commitLocked(entry)
	return entry, nil
}

// ApplyBatch applies a document's deltas as one atomic unit: all quantities
// and all ledger entries, or nothing. With RejectNegative, the final per-key
// quantities of the batch are checked first and an OverdraftError aborts the
// whole batch.
func (ix *StockIndex) ApplyBatch(ctx context.Context, ops []DeltaOp, policy OverdraftPolicy) ([]LedgerEntry, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if policy == RejectNegative {
		if err := ix.checkOverdraftLocked(ops); err != nil {
			return nil, err
		}
	}

	entries := make([]LedgerEntry, 0, len(ops))
	staged := make(map[StockKey]Quantity)
	for _, op := range ops {
		before, ok := staged[op.Key]
		if !ok {
			before = ix.getLocked(op.Key)
		}
		entry := ix.entryWithBefore(op.Key, before, op.Delta, op.DocType, op.DocID)
		staged[op.Key] = entry.After
		entries = append(entries, entry)
	}

	if err := ix.ledger.AppendBatch(ctx, entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		ix.commitLocked(e)
	}
	return entries, nil
}

// Reconcile records a count correction: change = counted - current, computed
// and applied under the same lock so a racing delta cannot skew the result.
func (ix *StockIndex) Reconcile(ctx context.Context, key StockKey, counted Quantity, docID *DocID) (LedgerEntry, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	before := ix.getLocked(key)
	entry := ix.entryWithBefore(key, before, counted.Sub(before), DocAdjustment, docID)
	if err := ix.ledger.Append(ctx, entry); err != nil {
		return LedgerEntry{}, err
	}
	ix.commitLocked(entry)
	return entry, nil
}

// =============================================================================
// INTERNALS (callers hold ix.mu)
// =============================================================================

func (ix *StockIndex) getLocked(key StockKey) Quantity {
	if q, ok := ix.quantities[key]; ok {
		return q
	}
	return ZeroQty()
}

func (ix *StockIndex) entryLocked(key StockKey, delta Quantity, docType DocType, docID *DocID) LedgerEntry {
	return ix.entryWithBefore(key, ix.getLocked(key), delta, docType, docID)
}

func (ix *StockIndex) entryWithBefore(key StockKey, before, delta Quantity, docType DocType, docID *DocID) LedgerEntry {
	var loc *string
	if key.Location != "" {
		l := key.Location
		loc = &l
	}
	ix.seq++
	return LedgerEntry{
		ID:        EntryID(uuid.NewString()),
		Seq:       ix.seq,
		ProductID: key.ProductID,
		Warehouse: key.Warehouse,
		Location:  loc,
		Change:    delta,
		Before:    before,
		After:     before.Add(delta),
		DocType:   docType,
		DocID:     docID,
		CreatedAt: ix.now(),
	}
}

func (ix *StockIndex) commitLocked(e LedgerEntry) {
	ix.quantities[e.Key()] = e.After
}

func (ix *StockIndex) checkOverdraftLocked(ops []DeltaOp) error {
	final := make(map[StockKey]Quantity)
	for _, op := range ops {
		q, ok := final[op.Key]
		if !ok {
			q = ix.getLocked(op.Key)
		}
		final[op.Key] = q.Add(op.Delta)
	}
	for _, op := range ops {
		if final[op.Key].IsNegative() {
			return &OverdraftError{
				Key:       op.Key,
				Available: ix.getLocked(op.Key),
				Requested: ix.getLocked(op.Key).Sub(final[op.Key]),
			}
		}
	}
	return nil
}
