package mempool

import (
	"sort"
	"sync"
	"time"

	"vindex/config"
	verrors "vindex/errors"
	"vindex/transaction"
)

// Mempool holds admitted transactions until they are committed to a block.
// Admission rejects equivalent submissions (same sender, recipient, amount)
// inside the duplicate window.
type Mempool struct {
	mu    sync.Mutex
	txs   map[string]*transaction.Transaction // by id
	order []string                            // admission order
	seen  map[string]int64                    // dedup key -> admitted at (unix millis)

	window time.Duration
	now    func() time.Time
}

// New creates an empty mempool with the protocol duplicate window.
func New() *Mempool {
	return &Mempool{
		txs:    make(map[string]*transaction.Transaction),
		seen:   make(map[string]int64),
		window: config.DuplicateWindow,
		now:    time.Now,
	}
}

// SetClock overrides the time source for tests.
func (m *Mempool) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Add admits a transaction. A transaction equivalent to one admitted within
// the duplicate window is rejected.
func (m *Mempool) Add(tx *transaction.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.txs[tx.ID]; exists {
		return verrors.Newf(verrors.ErrCodeDuplicateTransaction, "transaction %s already pending", tx.ID)
	}
	nowMs := m.now().UnixMilli()
	key := tx.DedupKey()
	if admitted, seen := m.seen[key]; seen && nowMs-admitted < m.window.Milliseconds() {
		return verrors.New(verrors.ErrCodeDuplicateTransaction,
			"equivalent transaction submitted within the duplicate window")
	}

	m.txs[tx.ID] = tx
	m.order = append(m.order, tx.ID)
	m.seen[key] = nowMs
	return nil
}

// Len returns the number of pending transactions.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// Pending returns the pending transactions in admission order.
func (m *Mempool) Pending() []*transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*transaction.Transaction, 0, len(m.order))
	for _, id := range m.order {
		if tx, ok := m.txs[id]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// Candidates returns up to max transactions ordered by fee descending,
// without removing them. Ties break on admission order so candidate
// selection is deterministic.
func (m *Mempool) Candidates(max int) []*transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make([]*transaction.Transaction, 0, len(m.order))
	for _, id := range m.order {
		if tx, ok := m.txs[id]; ok {
			candidates = append(candidates, tx)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Fee > candidates[j].Fee
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}

// Remove drops the given transaction ids.
func (m *Mempool) Remove(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.txs, id)
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if _, ok := m.txs[id]; ok {
			kept = append(kept, id)
		}
	}
	m.order = kept
}

// Sweep prunes duplicate-window entries that have expired.
func (m *Mempool) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().UnixMilli() - m.window.Milliseconds()
	for key, admitted := range m.seen {
		if admitted < cutoff {
			delete(m.seen, key)
		}
	}
}
