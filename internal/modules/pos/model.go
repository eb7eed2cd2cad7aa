package pos

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, matching the register wire format.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the lifecycle state of a transaction. The only transition is
// completed -> voided; voided is terminal.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusVoided    Status = "voided"
)

// TransactionItem is a line frozen at checkout. Later catalog edits never
// reach it.
type TransactionItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// Draft is an unsaved sale: everything a Transaction carries except the
// fields the store of record assigns.
type Draft struct {
	StoreID    string            `json:"storeId"`
	StoreName  string            `json:"storeName"`
	BranchID   string            `json:"branchId"`
	BranchName string            `json:"branchName"`
	Items      []TransactionItem `json:"items"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	Discount   decimal.Decimal   `json:"discount"`
	Total      decimal.Decimal   `json:"total"`
}

// Transaction is a persisted sale.
type Transaction struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	Draft
	Status     Status `json:"status"`
	VoidedAt   *int64 `json:"voidedAt,omitempty"`
	VoidReason string `json:"voidReason,omitempty"`
}

// Filter narrows a listing to a store and optionally a branch. Empty fields
// match everything.
type Filter struct {
	StoreID  string
	BranchID string
}

// Matches reports whether t falls inside the filter.
func (f Filter) Matches(t Transaction) bool {
	return (f.StoreID == "" || f.StoreID == t.StoreID) &&
		(f.BranchID == "" || f.BranchID == t.BranchID)
}

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrInvalidCheckout = errors.New("invalid checkout")
	ErrUnavailable     = errors.New("transaction repository unavailable")
)

// Validate rejects drafts that must never be submitted.
func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: transaction must contain at least one item", ErrInvalidCheckout)
	}
	if d.StoreID == "" || d.BranchID == "" {
		return fmt.Errorf("%w: storeId and branchId are required", ErrInvalidCheckout)
	}
	sum := decimal.Zero
	for _, it := range d.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: productId is required", ErrInvalidCheckout)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1 for %s", ErrInvalidCheckout, it.ProductID)
		}
		if it.UnitPrice.IsNegative() || it.LineTotal.IsNegative() {
			return fmt.Errorf("%w: negative amount for %s", ErrInvalidCheckout, it.ProductID)
		}
		if !it.LineTotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))) {
			return fmt.Errorf("%w: lineTotal must equal unitPrice times quantity for %s", ErrInvalidCheckout, it.ProductID)
		}
		sum = sum.Add(it.LineTotal)
	}
	if !d.Subtotal.Equal(sum) {
		return fmt.Errorf("%w: subtotal must equal the sum of line totals", ErrInvalidCheckout)
	}
	if d.Subtotal.IsNegative() || d.Discount.IsNegative() || d.Total.IsNegative() {
		return fmt.Errorf("%w: totals must not be negative", ErrInvalidCheckout)
	}
	if !d.Total.Equal(d.Subtotal.Sub(d.Discount)) {
		return fmt.Errorf("%w: total must equal subtotal minus discount", ErrInvalidCheckout)
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate shared items.
func (t Transaction) Clone() Transaction {
	c := t
	c.Items = append([]TransactionItem(nil), t.Items...)
	if t.VoidedAt != nil {
		at := *t.VoidedAt
		c.VoidedAt = &at
	}
	return c
}

// MarkVoided applies the completed -> voided transition. It reports false
// and leaves t untouched when t is already voided.
func (t *Transaction) MarkVoided(at int64, reason string) bool {
	if t.Status == StatusVoided {
		return false
	}
	t.Status = StatusVoided
	t.VoidedAt = &at
	if reason != "" {
		t.VoidReason = reason
	}
	return true
}

// NewTransactionID returns an opaque id of the form TXN-<millis>-<suffix>.
func NewTransactionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}

// newTransaction stamps a draft with the fields the store of record owns.
func newTransaction(d Draft, now time.Time) Transaction {
	d.Items = append([]TransactionItem(nil), d.Items...)
	return Transaction{
		ID:        NewTransactionID(now),
		Timestamp: now.UnixMilli(),
		Draft:     d,
		Status:    StatusCompleted,
	}
}
