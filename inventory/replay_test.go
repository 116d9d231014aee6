package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// REPLAY PROPERTY - Ledger history alone determines current state
// =============================================================================

func TestReplay_ReproducesIndexAfterMixedHistory(t *testing.T) {
	// GIVEN: A history of init, receipt, delivery, transfer and adjustment
	// WHEN: Folding the ledger per key
	// THEN: Every key's fold equals the live index quantity

	ix, mem := newTestIndex()
	ctx := context.Background()
	main := key("p1", "MAIN", "")
	prod := key("p1", "PROD", "")

	_, err := ix.ApplyDelta(ctx, main, inventory.Qty(200), inventory.DocInit, nil)
	require.NoError(t, err)

	rcpt := inventory.DocID("rcpt-1")
	_, err = ix.ApplyDelta(ctx, main, inventory.Qty(25), inventory.DocReceipt, &rcpt)
	require.NoError(t, err)

	tr := inventory.DocID("tr-1")
	_, err = ix.ApplyBatch(ctx, []inventory.DeltaOp{
		{Key: main, Delta: inventory.Qty(-40), DocType: inventory.DocTransfer, DocID: &tr},
		{Key: prod, Delta: inventory.Qty(40), DocType: inventory.DocTransfer, DocID: &tr},
	}, inventory.AllowNegative)
	require.NoError(t, err)

	adj := inventory.DocID("adj-1")
	_, err = ix.Reconcile(ctx, prod, inventory.Qty(35), &adj)
	require.NoError(t, err)

	entries, err := mem.All(ctx)
	require.NoError(t, err)
	replayed := inventory.Replay(entries)

	assert.True(t, replayed[main].Equal(ix.Get(main)))
	assert.True(t, replayed[prod].Equal(ix.Get(prod)))
	assertQty(t, 185, ix.Get(main))
	assertQty(t, 35, ix.Get(prod))

	require.NoError(t, ix.Verify(ctx))
}

func TestRebuild_RestoresQuantitiesAndSequence(t *testing.T) {
	// GIVEN: A ledger written by one index
	// WHEN: A fresh index over the same ledger calls Rebuild
	// THEN: Quantities match and new entries continue the sequence

	ix, mem := newTestIndex()
	ctx := context.Background()
	k := key("p1", "MAIN", "dock")

	_, err := ix.ApplyDelta(ctx, k, inventory.Qty(7), inventory.DocInit, nil)
	require.NoError(t, err)
	last, err := ix.ApplyDelta(ctx, k, inventory.Qty(3), inventory.DocReceipt, nil)
	require.NoError(t, err)

	fresh := inventory.NewStockIndex(mem)
	require.NoError(t, fresh.Rebuild(ctx))
	assertQty(t, 10, fresh.Get(k))

	next, err := fresh.ApplyDelta(ctx, k, inventory.Qty(1), inventory.DocReceipt, nil)
	require.NoError(t, err)
	assert.Equal(t, last.Seq+1, next.Seq)
	require.NoError(t, fresh.Verify(ctx))
}

func TestVerify_DetectsDivergence(t *testing.T) {
	// GIVEN: An entry smuggled into the ledger behind the index's back
	// WHEN: Verifying
	// THEN: An InconsistencyError names the diverging key

	ix, mem := newTestIndex()
	ctx := context.Background()
	k := key("p1", "MAIN", "")

	_, err := ix.ApplyDelta(ctx, k, inventory.Qty(10), inventory.DocInit, nil)
	require.NoError(t, err)

	require.NoError(t, mem.Append(ctx, inventory.LedgerEntry{
		ID:        "rogue",
		Seq:       99,
		ProductID: k.ProductID,
		Warehouse: k.Warehouse,
		Change:    inventory.Qty(5),
		Before:    inventory.Qty(10),
		After:     inventory.Qty(15),
		DocType:   inventory.DocReceipt,
	}))

	err = ix.Verify(ctx)
	require.Error(t, err)
	var inc *inventory.InconsistencyError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, k, inc.Key)
	assertQty(t, 15, inc.Replayed)
	assertQty(t, 10, inc.Live)
}

// =============================================================================
// ORDERING
// =============================================================================

func TestNewestFirst_ReversesWithoutMutating(t *testing.T) {
	entries := []inventory.LedgerEntry{{Seq: 1}, {Seq: 2}, {Seq: 3}}
	reversed := inventory.NewestFirst(entries)

	assert.Equal(t, uint64(3), reversed[0].Seq)
	assert.Equal(t, uint64(1), reversed[2].Seq)
	assert.Equal(t, uint64(1), entries[0].Seq, "input must be untouched")
}
