package pos

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps transactions in process memory.
type MemoryRepository struct {
	mu  sync.RWMutex
	txs map[string]Transaction
	now func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{txs: make(map[string]Transaction), now: time.Now}
}

// List returns matching transactions sorted by timestamp descending.
func (r *MemoryRepository) List(ctx context.Context, f Filter) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Transaction, 0, len(r.txs))
	for _, t := range r.txs {
		if f.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Create stores the draft as a new completed transaction.
func (r *MemoryRepository) Create(ctx context.Context, d Draft) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := newTransaction(d, r.now())
	for {
		if _, taken := r.txs[t.ID]; !taken {
			break
		}
		t.ID = NewTransactionID(r.now())
	}
	r.txs[t.ID] = t
	return t.Clone(), nil
}

// Void marks the transaction voided.
func (r *MemoryRepository) Void(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok {
		return ErrNotFound
	}
	if t.MarkVoided(r.now().UnixMilli(), reason) {
		r.txs[id] = t
	}
	return nil
}
