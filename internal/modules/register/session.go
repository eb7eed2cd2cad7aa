package register

import (
	"context"
	"errors"
	"sync"

	"github.com/georgemunganga/printa-pos/internal/modules/cart"
	"github.com/georgemunganga/printa-pos/internal/modules/catalog"
	"github.com/georgemunganga/printa-pos/internal/modules/history"
	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"github.com/georgemunganga/printa-pos/internal/modules/tenant"
	"go.uber.org/zap"
)

var (
	ErrUnknownProduct  = errors.New("product is not sold at the selected branch")
	ErrUnknownCategory = errors.New("category does not exist for the selected store")
)

// Session is one register: the scope selection, the cart being rung up, the
// branch catalog and the sales history, kept consistent with each other.
//
// A branch change empties the cart. Any scope change reloads the catalog and
// refreshes the history in the background. A store change also clears the
// category filter.
type Session struct {
	ctx      context.Context
	scope    *tenant.Context
	cart     *cart.Engine
	provider catalog.Provider
	cache    *history.Cache
	log      *zap.Logger

	mu         sync.Mutex
	products   []catalog.Product
	categories []catalog.Category
	search     string
	category   string

	bg          sync.WaitGroup
	unsubscribe func()
}

// NewSession loads the catalog for the current scope and starts the first
// history refresh. ctx bounds every background call the session makes.
func NewSession(ctx context.Context, scope *tenant.Context, provider catalog.Provider, cache *history.Cache, log *zap.Logger) (*Session, error) {
	s := &Session{
		ctx:      ctx,
		scope:    scope,
		cart:     cart.New(nil),
		provider: provider,
		cache:    cache,
		log:      log,
		category: catalog.AllCategoryID,
	}
	current := scope.Scope()
	if err := s.loadCatalog(current); err != nil {
		return nil, err
	}
	s.unsubscribe = scope.Subscribe(s.onScopeChange)
	s.refreshAsync(current)
	return s, nil
}

func (s *Session) onScopeChange(ch tenant.Change) {
	if ch.BranchChanged {
		s.cart.Reset()
	}
	if ch.StoreChanged {
		s.mu.Lock()
		s.category = catalog.AllCategoryID
		s.mu.Unlock()
	}
	if err := s.loadCatalog(ch.Current); err != nil {
		s.log.Error("catalog reload failed",
			zap.String("store_id", ch.Current.Store.ID),
			zap.String("branch_id", ch.Current.Branch.ID),
			zap.Error(err))
	}
	s.refreshAsync(ch.Current)
}

func (s *Session) loadCatalog(scope tenant.Scope) error {
	products, err := s.provider.ProductsFor(s.ctx, scope.Store.ID, scope.Branch.ID)
	if err != nil {
		return err
	}
	categories, err := s.provider.CategoriesFor(s.ctx, scope.Store.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.products = products
	s.categories = categories
	s.mu.Unlock()
	return nil
}

func (s *Session) refreshAsync(scope tenant.Scope) {
	f := filterFor(scope)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if err := s.cache.Refresh(s.ctx, f); err != nil && !errors.Is(err, history.ErrStale) {
			s.log.Warn("history refresh failed",
				zap.String("store_id", f.StoreID),
				zap.String("branch_id", f.BranchID),
				zap.Error(err))
		}
	}()
}

func filterFor(scope tenant.Scope) pos.Filter {
	return pos.Filter{StoreID: scope.Store.ID, BranchID: scope.Branch.ID}
}

// Scope returns the active store and branch.
func (s *Session) Scope() tenant.Scope { return s.scope.Scope() }

// Cart exposes the cart for reads. Mutate it through the session.
func (s *Session) Cart() *cart.Engine { return s.cart }

// History returns the cached sales for the active scope.
func (s *Session) History() history.State { return s.cache.State() }

// Products returns the branch catalog narrowed by the search query and the
// selected category.
func (s *Session) Products() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.Filter(s.products, s.search, s.category)
}

func (s *Session) Categories() []catalog.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Category(nil), s.categories...)
}

func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

func (s *Session) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()
}

func (s *Session) SetCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			s.category = id
			return nil
		}
	}
	return ErrUnknownCategory
}

// AddProduct adds one unit of a product from the current branch catalog.
func (s *Session) AddProduct(productID string) error {
	s.mu.Lock()
	var (
		product catalog.Product
		found   bool
	)
	for _, p := range s.products {
		if p.ID == productID {
			product, found = p, true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return ErrUnknownProduct
	}
	s.cart.AddLine(product)
	return nil
}

func (s *Session) AdjustQuantity(productID string, delta int) {
	s.cart.AdjustQuantity(productID, delta)
}

func (s *Session) RemoveLine(productID string) { s.cart.RemoveLine(productID) }

// Checkout records the cart as a sale and takes the sold quantities out of
// the cart. Lines added while the sale was in flight stay. An empty cart is
// rejected before anything is sent. When the repository fails the cart is
// kept and the history is refreshed to pick up whatever did land.
func (s *Session) Checkout(ctx context.Context) (pos.Transaction, error) {
	scope := s.scope.Scope()
	draft, err := s.cart.Draft(scope)
	if err != nil {
		return pos.Transaction{}, err
	}
	t, err := s.cache.Create(ctx, draft)
	if err != nil {
		s.log.Warn("checkout failed", zap.Error(err))
		s.refreshAsync(scope)
		return pos.Transaction{}, err
	}
	s.cart.Deduct(draft.Items)
	s.log.Info("checkout complete",
		zap.String("id", t.ID),
		zap.String("branch_id", t.BranchID),
		zap.String("total", t.Total.StringFixed(2)))
	return t, nil
}

// Void voids a sale. The history shows it voided right away.
func (s *Session) Void(ctx context.Context, id, reason string) error {
	return s.cache.Void(ctx, id, reason)
}

// Refresh reloads the history for the active scope and waits for it.
func (s *Session) Refresh(ctx context.Context) error {
	return s.cache.Refresh(ctx, filterFor(s.scope.Scope()))
}

// Wait blocks until every background refresh has finished. Refresh failures
// are already recorded in History().LastError.
func (s *Session) Wait() { s.bg.Wait() }

// Close stops following scope changes and waits for background work.
func (s *Session) Close() {
	s.unsubscribe()
	s.Wait()
}
