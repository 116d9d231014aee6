package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/store/sqlite"
)

func newTestLedger(t *testing.T) *sqlite.Ledger {
	t.Helper()
	l, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func entry(seq uint64, pid string, change, before, after int64) inventory.LedgerEntry {
	return inventory.LedgerEntry{
		ID:        inventory.EntryID(uuid.NewString()),
		Seq:       seq,
		ProductID: inventory.ProductID(pid),
		Warehouse: "MAIN",
		Change:    inventory.Qty(change),
		Before:    inventory.Qty(before),
		After:     inventory.Qty(after),
		DocType:   inventory.DocReceipt,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestAppendAndAll_OrderedBySeq(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// Inserted out of order on purpose; reads must come back by seq.
	require.NoError(t, l.Append(ctx, entry(2, "p1", 5, 10, 15)))
	require.NoError(t, l.Append(ctx, entry(1, "p1", 10, 0, 10)))

	got, err := l.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, uint64(2), got[1].Seq)
	assert.True(t, got[0].Change.Equal(inventory.Qty(10)))
	assert.True(t, got[1].After.Equal(inventory.Qty(15)))
}

func TestAppendBatch_AllRowsLand(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	batch := []inventory.LedgerEntry{
		entry(1, "p1", 5, 0, 5),
		entry(2, "p2", 3, 0, 3),
		entry(3, "p1", -2, 5, 3),
	}
	require.NoError(t, l.AppendBatch(ctx, batch))

	got, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestForProduct_FiltersAndOrders(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, entry(1, "p1", 5, 0, 5)))
	require.NoError(t, l.Append(ctx, entry(2, "p2", 7, 0, 7)))
	require.NoError(t, l.Append(ctx, entry(3, "p1", -1, 5, 4)))

	got, err := l.ForProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, inventory.ProductID("p1"), got[0].ProductID)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, uint64(3), got[1].Seq)
}

func TestHasProduct(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, entry(1, "p1", 5, 0, 5)))

	yes, err := l.HasProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := l.HasProduct(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, no)
}

func TestNullableColumns_RoundTrip(t *testing.T) {
	// GIVEN: One entry with location and doc_id set, one with both NULL
	// WHEN: Reading them back
	// THEN: Pointers survive exactly, including nil

	l := newTestLedger(t)
	ctx := context.Background()

	loc := "A-01-02"
	docID := inventory.DocID("doc-123")
	withRefs := entry(1, "p1", 5, 0, 5)
	withRefs.Location = &loc
	withRefs.DocID = &docID

	bare := entry(2, "p1", 3, 5, 8)
	bare.DocType = inventory.DocInit

	require.NoError(t, l.Append(ctx, withRefs))
	require.NoError(t, l.Append(ctx, bare))

	got, err := l.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].Location)
	assert.Equal(t, loc, *got[0].Location)
	require.NotNil(t, got[0].DocID)
	assert.Equal(t, docID, *got[0].DocID)

	assert.Nil(t, got[1].Location)
	assert.Nil(t, got[1].DocID)
	assert.Equal(t, inventory.DocInit, got[1].DocType)
}

func TestRebuildFromPersistedLedger(t *testing.T) {
	// GIVEN: A persisted history written through one index
	// WHEN: A fresh index rebuilds from the same ledger
	// THEN: Live quantities match and verification passes

	l := newTestLedger(t)
	ctx := context.Background()
	key := inventory.StockKey{ProductID: "p1", Warehouse: "MAIN"}

	first := inventory.NewStockIndex(l)
	_, err := first.ApplyDelta(ctx, key, inventory.Qty(100), inventory.DocInit, nil)
	require.NoError(t, err)
	docID := inventory.DocID("d1")
	_, err = first.ApplyDelta(ctx, key, inventory.Qty(-30), inventory.DocDelivery, &docID)
	require.NoError(t, err)

	rebuilt := inventory.NewStockIndex(l)
	require.NoError(t, rebuilt.Rebuild(ctx))
	assert.True(t, rebuilt.Get(key).Equal(inventory.Qty(70)))
	require.NoError(t, rebuilt.Verify(ctx))

	// New writes continue the persisted seq instead of restarting at 1.
	e, err := rebuilt.ApplyDelta(ctx, key, inventory.Qty(5), inventory.DocReceipt, &docID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), e.Seq)
}
