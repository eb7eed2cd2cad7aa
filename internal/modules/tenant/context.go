package tenant

import "sync"

// Change describes one effective scope transition.
type Change struct {
	Previous      Scope
	Current       Scope
	StoreChanged  bool
	BranchChanged bool
}

// Context holds the process-wide store/branch selection and notifies
// subscribers when it changes. It owns no side effects itself: resetting the
// cart or refreshing history is up to the listeners.
type Context struct {
	mu        sync.Mutex
	scope     Scope
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(Change)
}

// NewContext starts at the initial store and its first branch.
func NewContext(initial Store) (*Context, error) {
	if len(initial.Branches) == 0 {
		return nil, ErrStoreHasNoBranches
	}
	return &Context{
		scope: Scope{Store: initial, Branch: initial.Branches[0]},
	}, nil
}

// Scope returns the current selection.
func (c *Context) Scope() Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// SelectStore switches to store and its first branch in one step.
func (c *Context) SelectStore(store Store) error {
	if len(store.Branches) == 0 {
		return ErrStoreHasNoBranches
	}
	return c.apply(func(Scope) (Scope, error) {
		return Scope{Store: store, Branch: store.Branches[0]}, nil
	})
}

// SelectBranch switches branch within the selected store.
func (c *Context) SelectBranch(branch Branch) error {
	return c.apply(func(cur Scope) (Scope, error) {
		if !cur.Store.HasBranch(branch.ID) {
			return cur, ErrBranchNotInStore
		}
		return Scope{Store: cur.Store, Branch: branch}, nil
	})
}

// Subscribe registers fn for every effective change and returns a function
// that removes it. Listeners run in subscription order.
func (c *Context) Subscribe(fn func(Change)) func() {
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

// apply computes the next scope under the lock and notifies listeners after
// releasing it.
func (c *Context) apply(next func(Scope) (Scope, error)) error {
	c.mu.Lock()
	prev := c.scope
	scope, err := next(prev)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	storeChanged := prev.Store.ID != scope.Store.ID
	branchChanged := storeChanged || prev.Branch.ID != scope.Branch.ID
	if !storeChanged && !branchChanged {
		c.mu.Unlock()
		return nil
	}
	c.scope = scope
	listeners := make([]listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	ch := Change{Previous: prev, Current: scope, StoreChanged: storeChanged, BranchChanged: branchChanged}
	for _, l := range listeners {
		l.fn(ch)
	}
	return nil
}
