package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"go.uber.org/zap"
)

// ErrStale is returned by a refresh whose response arrived after a newer
// refresh was issued. Its result is discarded.
var ErrStale = errors.New("refresh superseded by a newer request")

// State is a snapshot of the cache. Records are most recent first.
type State struct {
	Records   []pos.Transaction
	Loading   bool
	LastError string
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the epoch-millisecond clock used for optimistic voids.
func WithClock(now func() int64) Option {
	return func(c *Cache) { c.now = now }
}

// Cache mirrors the transaction repository for one register. Refresh replaces
// the records wholesale; Create and Void patch them in place.
type Cache struct {
	repo pos.Repository
	log  *zap.Logger
	now  func() int64

	mu        sync.Mutex
	state     State
	seq       uint64
	filter    pos.Filter
	nextID    int
	listeners []listener

	// epoch counts local edits. Edits made while a refresh is in flight are
	// journaled and replayed onto its response, which may predate them.
	epoch    uint64
	inflight int
	journal  []edit
}

type edit struct {
	epoch uint64
	apply func(records []pos.Transaction, f pos.Filter) []pos.Transaction
}

type listener struct {
	id int
	fn func(State)
}

func New(repo pos.Repository, log *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		repo: repo,
		log:  log,
		now:  func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Find returns the cached record for id.
func (c *Cache) Find(id string) (pos.Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		return c.state.Records[i].Clone(), true
	}
	return pos.Transaction{}, false
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (c *Cache) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Refresh reloads the records matching f. Only the most recently issued
// refresh may write the state; an older one completing late returns ErrStale.
// Creates and voids applied locally after the refresh was issued are replayed
// onto its response. On failure the previous records are kept and LastError
// is set.
func (c *Cache) Refresh(ctx context.Context, f pos.Filter) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	start := c.epoch
	c.inflight++
	c.filter = f
	c.state.Loading = true
	c.state.LastError = ""
	c.publish()

	records, err := c.repo.List(ctx, f)

	c.mu.Lock()
	c.inflight--
	defer c.trim(start)
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug("discarding stale refresh",
			zap.Uint64("seq", seq),
			zap.String("store_id", f.StoreID),
			zap.String("branch_id", f.BranchID))
		return ErrStale
	}
	c.state.Loading = false
	if err != nil {
		c.state.LastError = err.Error()
		c.publish()
		c.log.Warn("refresh failed", zap.Error(err))
		return err
	}
	for _, e := range c.journal {
		if e.epoch > start {
			records = e.apply(records, f)
		}
	}
	c.state.Records = records
	c.publish()
	return nil
}

// record applies fn to the cached records and journals it for any refresh
// still in flight. Callers hold c.mu.
func (c *Cache) record(fn func(records []pos.Transaction, f pos.Filter) []pos.Transaction) {
	c.epoch++
	if c.inflight > 0 {
		c.journal = append(c.journal, edit{epoch: c.epoch, apply: fn})
	}
	c.state.Records = fn(c.state.Records, c.filter)
}

// trim drops journal entries no in-flight refresh can still need.
func (c *Cache) trim(start uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == 0 {
		c.journal = nil
		return
	}
	// A later refresh started after start, so anything at or before it is
	// already visible to that refresh's listing.
	kept := c.journal[:0]
	for _, e := range c.journal {
		if e.epoch > start {
			kept = append(kept, e)
		}
	}
	c.journal = kept
}

// Create submits d and prepends the stored transaction. Nothing is inserted
// locally before the repository answers since it assigns the id. Empty
// drafts never reach the repository.
func (c *Cache) Create(ctx context.Context, d pos.Draft) (pos.Transaction, error) {
	if len(d.Items) == 0 {
		return pos.Transaction{}, pos.ErrInvalidCheckout
	}

	t, err := c.repo.Create(ctx, d)

	c.mu.Lock()
	if err != nil {
		c.state.LastError = err.Error()
		c.publish()
		c.log.Warn("create failed", zap.Error(err))
		return pos.Transaction{}, err
	}
	created := t.Clone()
	c.record(func(records []pos.Transaction, f pos.Filter) []pos.Transaction {
		if !f.Matches(created) {
			return records
		}
		out := make([]pos.Transaction, 0, len(records)+1)
		out = append(out, created.Clone())
		for _, r := range records {
			if r.ID != created.ID {
				out = append(out, r)
			}
		}
		return out
	})
	c.publish()
	return t.Clone(), nil
}

// Void marks the record voided locally and notifies subscribers before the
// repository is asked. If the repository call fails the mark is not undone:
// LastError is set and a refresh with the last filter restores ground truth.
// The repository error is returned so ErrNotFound stays distinguishable.
func (c *Cache) Void(ctx context.Context, id, reason string) error {
	c.mu.Lock()
	i := c.index(id)
	changed := i >= 0 && c.state.Records[i].Status != pos.StatusVoided
	c.record(markVoided(id, reason, c.now()))
	if changed {
		c.publish()
	} else {
		c.mu.Unlock()
	}

	err := c.repo.Void(ctx, id, reason)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	c.state.LastError = err.Error()
	f := c.filter
	c.publish()
	c.log.Warn("void failed, reconciling", zap.String("id", id), zap.Error(err))

	if rerr := c.Refresh(ctx, f); rerr != nil && !errors.Is(rerr, ErrStale) {
		c.log.Warn("reconciling refresh failed", zap.Error(rerr))
	}
	return err
}

func markVoided(id, reason string, at int64) func([]pos.Transaction, pos.Filter) []pos.Transaction {
	return func(records []pos.Transaction, _ pos.Filter) []pos.Transaction {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			rec := records[i].Clone()
			if !rec.MarkVoided(at, reason) {
				return records
			}
			out := append([]pos.Transaction(nil), records...)
			out[i] = rec
			return out
		}
		return records
	}
}

// publish releases c.mu and hands a snapshot to every listener.
func (c *Cache) publish() {
	s := c.snapshot()
	ls := make([]listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()
	for _, l := range ls {
		l.fn(s)
	}
}

func (c *Cache) snapshot() State {
	s := c.state
	s.Records = make([]pos.Transaction, len(c.state.Records))
	for i, r := range c.state.Records {
		s.Records[i] = r.Clone()
	}
	return s
}

func (c *Cache) index(id string) int {
	for i, r := range c.state.Records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
