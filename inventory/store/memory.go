// Package store provides Ledger implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// MEMORY LEDGER - In-memory implementation (default)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	entries []inventory.LedgerEntry
}

func NewMemory() *Memory {
	return &Memory{}
}

// Append adds a single entry. Append-only.
func (m *Memory) Append(_ context.Context, entry inventory.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// AppendBatch adds multiple entries atomically.
func (m *Memory) AppendBatch(_ context.Context, entries []inventory.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *Memory) All(_ context.Context) ([]inventory.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *Memory) ForProduct(_ context.Context, productID inventory.ProductID) ([]inventory.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.LedgerEntry
	for _, e := range m.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) HasProduct(_ context.Context, productID inventory.ProductID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}
