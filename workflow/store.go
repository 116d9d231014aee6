/*
store.go - In-memory document storage with completion guards

PURPOSE:
  Owns the documents and hands out copies, so callers can never mutate a
  stored document behind the store's back. All writes go through methods
  that hold the store lock.

COMPLETION GUARD:
  Each document has a dedicated mutex, acquired for the whole
  check-validate-apply-flip sequence of a completion. Two racing
  completions of the same document serialize on it, so the Draft check and
  the flip to Done are atomic and double application is impossible even
  under a race. The store lock itself is never held across a stock
  mutation.
*/
package workflow

import (
	"sync"
	"time"

	"github.com/warp/stock-engine/inventory"
)

type DocumentStore struct {
	mu          sync.RWMutex
	receipts    map[inventory.DocID]Receipt
	deliveries  map[inventory.DocID]Delivery
	transfers   map[inventory.DocID]Transfer
	adjustments map[inventory.DocID]Adjustment
	order       []inventory.DocID // creation order for stable listings

	guardMu sync.Mutex
	guards  map[inventory.DocID]*sync.Mutex
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		receipts:    make(map[inventory.DocID]Receipt),
		deliveries:  make(map[inventory.DocID]Delivery),
		transfers:   make(map[inventory.DocID]Transfer),
		adjustments: make(map[inventory.DocID]Adjustment),
		guards:      make(map[inventory.DocID]*sync.Mutex),
	}
}

// guard returns the completion mutex for a document, creating it on first use.
func (s *DocumentStore) guard(id inventory.DocID) *sync.Mutex {
	s.guardMu.Lock()
	defer s.guardMu.Unlock()
	g, ok := s.guards[id]
	if !ok {
		g = &sync.Mutex{}
		s.guards[id] = g
	}
	return g
}

// Lock serializes completions (and pick/pack mutations) of one document.
// The returned function releases the guard.
func (s *DocumentStore) Lock(id inventory.DocID) func() {
	g := s.guard(id)
	g.Lock()
	return g.Unlock
}

// =============================================================================
// RECEIPTS
// =============================================================================

func (s *DocumentStore) PutReceipt(r Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[r.ID] = r
	s.order = append(s.order, r.ID)
}

func (s *DocumentStore) Receipt(id inventory.DocID) (Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[id]
	if !ok {
		return Receipt{}, &inventory.NotFoundError{Kind: "receipt", ID: string(id)}
	}
	return copyReceipt(r), nil
}

func (s *DocumentStore) Receipts() []Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Receipt, 0, len(s.receipts))
	for _, id := range s.order {
		if r, ok := s.receipts[id]; ok {
			out = append(out, copyReceipt(r))
		}
	}
	return out
}

// CompleteReceipt flips the document to Done and records the received
// quantities. Caller holds the completion guard.
func (s *DocumentStore) CompleteReceipt(id inventory.DocID, at time.Time) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	if !ok {
		return Receipt{}, &inventory.NotFoundError{Kind: "receipt", ID: string(id)}
	}
	for i := range r.Lines {
		r.Lines[i].QtyReceived = r.Lines[i].QtyExpected
	}
	r.Status = StatusDone
	r.CompletedAt = &at
	s.receipts[id] = r
	return copyReceipt(r), nil
}

// =============================================================================
// DELIVERIES
// =============================================================================

func (s *DocumentStore) PutDelivery(d Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[d.ID] = d
	s.order = append(s.order, d.ID)
}

func (s *DocumentStore) Delivery(id inventory.DocID) (Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[id]
	if !ok {
		return Delivery{}, &inventory.NotFoundError{Kind: "delivery", ID: string(id)}
	}
	return copyDelivery(d), nil
}

func (s *DocumentStore) Deliveries() []Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Delivery, 0, len(s.deliveries))
	for _, id := range s.order {
		if d, ok := s.deliveries[id]; ok {
			out = append(out, copyDelivery(d))
		}
	}
	return out
}

// SetDeliveryLineQty overwrites a line's picked or packed quantity.
// Re-picking overwrites, it does not accumulate. Caller holds the guard so
// the Draft check cannot race a completion.
func (s *DocumentStore) SetDeliveryLineQty(id inventory.DocID, lineID LineID, qty inventory.Quantity, packed bool) (Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return Delivery{}, &inventory.NotFoundError{Kind: "delivery", ID: string(id)}
	}
	if d.Status == StatusDone {
		return Delivery{}, &inventory.AlreadyCompletedError{DocType: inventory.DocDelivery, DocID: id}
	}
	for i := range d.Lines {
		if d.Lines[i].ID != lineID {
			continue
		}
		if packed {
			d.Lines[i].QtyPacked = qty
		} else {
			d.Lines[i].QtyPicked = qty
		}
		s.deliveries[id] = d
		return copyDelivery(d), nil
	}
	return Delivery{}, &inventory.NotFoundError{Kind: "delivery line", ID: string(lineID)}
}

// CompleteDelivery flips the document to Done. Caller holds the guard.
func (s *DocumentStore) CompleteDelivery(id inventory.DocID, at time.Time) (Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return Delivery{}, &inventory.NotFoundError{Kind: "delivery", ID: string(id)}
	}
	d.Status = StatusDone
	d.CompletedAt = &at
	s.deliveries[id] = d
	return copyDelivery(d), nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (s *DocumentStore) PutTransfer(t Transfer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers[t.ID] = t
	s.order = append(s.order, t.ID)
}

func (s *DocumentStore) Transfer(id inventory.DocID) (Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[id]
	if !ok {
		return Transfer{}, &inventory.NotFoundError{Kind: "transfer", ID: string(id)}
	}
	return copyTransfer(t), nil
}

func (s *DocumentStore) Transfers() []Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transfer, 0, len(s.transfers))
	for _, id := range s.order {
		if t, ok := s.transfers[id]; ok {
			out = append(out, copyTransfer(t))
		}
	}
	return out
}

// CompleteTransfer flips the document to Done. Caller holds the guard.
func (s *DocumentStore) CompleteTransfer(id inventory.DocID, at time.Time) (Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return Transfer{}, &inventory.NotFoundError{Kind: "transfer", ID: string(id)}
	}
	t.Status = StatusDone
	t.CompletedAt = &at
	s.transfers[id] = t
	return copyTransfer(t), nil
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func (s *DocumentStore) PutAdjustment(a Adjustment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments[a.ID] = a
	s.order = append(s.order, a.ID)
}

func (s *DocumentStore) Adjustments() []Adjustment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Adjustment, 0, len(s.adjustments))
	for _, id := range s.order {
		if a, ok := s.adjustments[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// =============================================================================
// COPIES - Lines are slices, so shallow struct copies are not enough
// =============================================================================

func copyReceipt(r Receipt) Receipt {
	r.Lines = append([]ReceiptLine(nil), r.Lines...)
	return r
}

func copyDelivery(d Delivery) Delivery {
	d.Lines = append([]DeliveryLine(nil), d.Lines...)
	return d
}

func copyTransfer(t Transfer) Transfer {
	t.Lines = append([]TransferLine(nil), t.Lines...)
	return t
}
