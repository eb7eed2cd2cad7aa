package cart

import (
	"math"
	"sync"

	"github.com/georgemunganga/printa-pos/internal/modules/catalog"
	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"github.com/georgemunganga/printa-pos/internal/modules/tenant"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	Product  catalog.Product
	Quantity int
}

// Amount is the line's current price times its quantity.
func (l Line) Amount() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DiscountPolicy computes the discount for a cart.
type DiscountPolicy interface {
	Discount(lines []Line, subtotal decimal.Decimal) decimal.Decimal
}

// NoDiscount never discounts.
type NoDiscount struct{}

func (NoDiscount) Discount([]Line, decimal.Decimal) decimal.Decimal { return decimal.Zero }

// Engine holds the lines of the sale being built on a register. Mutations on
// absent product ids are silent no-ops so repeated UI events are harmless.
type Engine struct {
	mu        sync.Mutex
	lines     []Line
	policy    DiscountPolicy
	listeners []func()
}

// New returns an empty cart. A nil policy means NoDiscount.
func New(policy DiscountPolicy) *Engine {
	if policy == nil {
		policy = NoDiscount{}
	}
	return &Engine{policy: policy}
}

// Subscribe registers fn to run after every mutation that changed the cart.
func (e *Engine) Subscribe(fn func()) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

// AddLine adds one unit of product. Stock is not checked.
func (e *Engine) AddLine(product catalog.Product) {
	e.mutate(func() bool {
		if i := e.index(product.ID); i >= 0 {
			e.lines[i].Quantity = addQuantity(e.lines[i].Quantity, 1)
			return true
		}
		e.lines = append(e.lines, Line{Product: product, Quantity: 1})
		return true
	})
}

// AdjustQuantity changes a line's quantity by delta, dropping the line when
// the result is zero or less.
func (e *Engine) AdjustQuantity(productID string, delta int) {
	e.mutate(func() bool {
		i := e.index(productID)
		if i < 0 || delta == 0 {
			return false
		}
		if q := addQuantity(e.lines[i].Quantity, delta); q > 0 {
			e.lines[i].Quantity = q
		} else {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
		}
		return true
	})
}

// Deduct takes sold items out of the cart, leaving anything added since the
// draft was taken. Lines that reach zero are removed.
func (e *Engine) Deduct(items []pos.TransactionItem) {
	e.mutate(func() bool {
		changed := false
		for _, it := range items {
			i := e.index(it.ProductID)
			if i < 0 || it.Quantity <= 0 {
				continue
			}
			changed = true
			if q := e.lines[i].Quantity - it.Quantity; q > 0 {
				e.lines[i].Quantity = q
			} else {
				e.lines = append(e.lines[:i], e.lines[i+1:]...)
			}
		}
		return changed
	})
}

// RemoveLine drops the line for productID if there is one.
func (e *Engine) RemoveLine(productID string) {
	e.mutate(func() bool {
		i := e.index(productID)
		if i < 0 {
			return false
		}
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
		return true
	})
}

// Reset empties the cart.
func (e *Engine) Reset() {
	e.mutate(func() bool {
		if len(e.lines) == 0 {
			return false
		}
		e.lines = nil
		return true
	})
}

// Lines returns a copy of the lines in the order they were added.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Line(nil), e.lines...)
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines)
}

func (e *Engine) IsEmpty() bool { return e.Len() == 0 }

// Quantity returns the quantity held for productID, or 0.
func (e *Engine) Quantity(productID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.index(productID); i >= 0 {
		return e.lines[i].Quantity
	}
	return 0
}

func (e *Engine) Subtotal() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return subtotal(e.lines)
}

// Discount is the policy's discount clamped to [0, Subtotal].
func (e *Engine) Discount() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.discount(subtotal(e.lines))
}

func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub := subtotal(e.lines)
	return sub.Sub(e.discount(sub))
}

// Draft freezes the cart into an unsaved transaction for scope. Names and
// prices are copied so later catalog changes don't reach the sale.
func (e *Engine) Draft(scope tenant.Scope) (pos.Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.lines) == 0 {
		return pos.Draft{}, pos.ErrInvalidCheckout
	}

	items := make([]pos.TransactionItem, 0, len(e.lines))
	for _, l := range e.lines {
		items = append(items, pos.TransactionItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
			LineTotal:   l.Amount(),
		})
	}
	sub := subtotal(e.lines)
	disc := e.discount(sub)
	return pos.Draft{
		StoreID:    scope.Store.ID,
		StoreName:  scope.Store.Label,
		BranchID:   scope.Branch.ID,
		BranchName: scope.Branch.Label,
		Items:      items,
		Subtotal:   sub,
		Discount:   disc,
		Total:      sub.Sub(disc),
	}, nil
}

func (e *Engine) mutate(fn func() bool) {
	e.mu.Lock()
	changed := fn()
	listeners := append([]func(){}, e.listeners...)
	e.mu.Unlock()
	if !changed {
		return
	}
	for _, l := range listeners {
		l()
	}
}

func (e *Engine) index(productID string) int {
	for i, l := range e.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) discount(sub decimal.Decimal) decimal.Decimal {
	d := e.policy.Discount(append([]Line(nil), e.lines...), sub)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(sub) {
		return sub
	}
	return d
}

// addQuantity saturates at math.MaxInt instead of wrapping.
func addQuantity(q, delta int) int {
	if delta > 0 && q > math.MaxInt-delta {
		return math.MaxInt
	}
	return q + delta
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}
