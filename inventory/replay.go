/*
replay.go - Rebuilding and verifying the index from the ledger

PURPOSE:
  The ledger is the system of record; the index is a derived cache. This
  file implements both directions of that relationship: folding the ledger
  back into quantities (startup with a persistent ledger, tests) and
  checking that the live index still equals that fold.

  A Verify failure is fatal. It means the serialization discipline around
  ApplyDelta/ApplyBatch was broken, and the reported InconsistencyError
  should not be treated as recoverable.
*/
package inventory

import "context"

// Replay folds entries, in creation order starting from zero, into the
// quantity each stock key should hold.
func Replay(entries []LedgerEntry) map[StockKey]Quantity {
	out := make(map[StockKey]Quantity)
	for _, e := range entries {
		k := e.Key()
		if cur, ok := out[k]; ok {
			out[k] = cur.Add(e.Change)
		} else {
			out[k] = e.Change
		}
	}
	return out
}

// Rebuild loads the full ledger and replaces the index's quantities with the
// replayed fold. Called once at startup when the ledger outlives the process.
func (ix *StockIndex) Rebuild(ctx context.Context) error {
	entries, err := ix.ledger.All(ctx)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.quantities = Replay(entries)
	ix.seq = 0
	for _, e := range entries {
		if e.Seq > ix.seq {
			ix.seq = e.Seq
		}
	}
	return nil
}

// Verify checks the replayability invariant: for every key, the folded
// ledger history must equal the live quantity. Returns an
// InconsistencyError naming the first diverging key, or nil.
func (ix *StockIndex) Verify(ctx context.Context) error {
	// Holding the read lock blocks writers, so the ledger snapshot and the
	// live quantities are observed as one consistent state.
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries, err := ix.ledger.All(ctx)
	if err != nil {
		return err
	}
	replayed := Replay(entries)

	for k, live := range ix.quantities {
		want, ok := replayed[k]
		if !ok {
			want = ZeroQty()
		}
		if !want.Equal(live) {
			return &InconsistencyError{Key: k, Replayed: want, Live: live}
		}
	}
	for k, want := range replayed {
		if _, ok := ix.quantities[k]; !ok && !want.IsZero() {
			return &InconsistencyError{Key: k, Replayed: want, Live: ZeroQty()}
		}
	}
	return nil
}
