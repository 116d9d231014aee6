/*
Package sqlite provides a SQLite-backed implementation of the Ledger.

PURPOSE:
  Persists ledger entries so the stock history outlives the process. On
  startup the StockIndex is rebuilt by replaying the persisted entries;
  durability guarantees beyond that are out of scope.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the entries table
  - No DELETE statements on the entries table
  - Corrections via adjustment entries only

SCHEMA:
  ledger_entries: one row per entry; seq carries the total creation order,
  quantities are stored as exact decimal strings.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the single writer.

USAGE:
  ledger, err := sqlite.New("./data/stock.db")  // ":memory:" works too
  ...
  defer ledger.Close()
  index := inventory.NewStockIndex(ledger)
  index.Rebuild(ctx)

SEE ALSO:
  - inventory/ledger.go: Interface definition
  - inventory/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

// Ledger implements inventory.Ledger on SQLite.
type Ledger struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Writes arrive from inside the StockIndex critical section, so a
	// single connection avoids SQLITE_BUSY without another lock here.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	schema := `
	-- Ledger entries (append-only)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL UNIQUE,
		product_id TEXT NOT NULL,
		warehouse TEXT NOT NULL,
		location TEXT,
		change TEXT NOT NULL,
		before_qty TEXT NOT NULL,
		after_qty TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		doc_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_product
		ON ledger_entries(product_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_doc
		ON ledger_entries(doc_id) WHERE doc_id IS NOT NULL;
	`
	_, err := l.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES (append-only)
// =============================================================================

const insertEntry = `
	INSERT INTO ledger_entries
		(id, seq, product_id, warehouse, location, change, before_qty, after_qty, doc_type, doc_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (l *Ledger) Append(ctx context.Context, entry inventory.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx, insertEntry, insertArgs(entry)...)
	return err
}

func (l *Ledger) AppendBatch(ctx context.Context, entries []inventory.LedgerEntry) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insertEntry, insertArgs(entry)...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func insertArgs(e inventory.LedgerEntry) []any {
	var loc, docID sql.NullString
	if e.Location != nil {
		loc = sql.NullString{String: *e.Location, Valid: true}
	}
	if e.DocID != nil {
		docID = sql.NullString{String: string(*e.DocID), Valid: true}
	}
	return []any{
		string(e.ID), e.Seq, string(e.ProductID), string(e.Warehouse), loc,
		e.Change.String(), e.Before.String(), e.After.String(),
		string(e.DocType), docID, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// =============================================================================
// READS
// =============================================================================

const selectEntries = `
	SELECT id, seq, product_id, warehouse, location, change, before_qty, after_qty, doc_type, doc_id, created_at
	FROM ledger_entries`

func (l *Ledger) All(ctx context.Context) ([]inventory.LedgerEntry, error) {
	return l.query(ctx, selectEntries+` ORDER BY seq`)
}

func (l *Ledger) ForProduct(ctx context.Context, productID inventory.ProductID) ([]inventory.LedgerEntry, error) {
	return l.query(ctx, selectEntries+` WHERE product_id = ? ORDER BY seq`, string(productID))
}

func (l *Ledger) HasProduct(ctx context.Context, productID inventory.ProductID) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ledger_entries WHERE product_id = ?`,
		string(productID)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *Ledger) query(ctx context.Context, q string, args ...any) ([]inventory.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.LedgerEntry
	for rows.Next() {
		var (
			e                     inventory.LedgerEntry
			id, pid, wh, docType  string
			loc, docID            sql.NullString
			change, before, after string
			createdAt             string
		)
		if err := rows.Scan(&id, &e.Seq, &pid, &wh, &loc, &change, &before, &after, &docType, &docID, &createdAt); err != nil {
			return nil, err
		}
		e.ID = inventory.EntryID(id)
		e.ProductID = inventory.ProductID(pid)
		e.Warehouse = inventory.WarehouseCode(wh)
		e.DocType = inventory.DocType(docType)
		if loc.Valid {
			v := loc.String
			e.Location = &v
		}
		if docID.Valid {
			v := inventory.DocID(docID.String)
			e.DocID = &v
		}
		if e.Change, err = decimal.NewFromString(change); err != nil {
			return nil, fmt.Errorf("corrupt change value %q: %w", change, err)
		}
		if e.Before, err = decimal.NewFromString(before); err != nil {
			return nil, fmt.Errorf("corrupt before value %q: %w", before, err)
		}
		if e.After, err = decimal.NewFromString(after); err != nil {
			return nil, fmt.Errorf("corrupt after value %q: %w", after, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt created_at value %q: %w", createdAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
