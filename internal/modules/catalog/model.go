package catalog

import "github.com/shopspring/decimal"

// LowStockThreshold is the stock level at or below which a product is
// flagged as low on the register.
const LowStockThreshold = 10

// Product is a sellable item in one branch's catalog. Stock is advisory and
// never enforced by the cart.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

// LowStock reports whether the product should carry a low-stock badge.
func (p Product) LowStock() bool { return p.Stock <= LowStockThreshold }

// Category groups products within a store.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// AllCategoryID is the wildcard category every store exposes.
const AllCategoryID = "all"

// AllCategory matches every product.
var AllCategory = Category{ID: AllCategoryID, Label: "All"}
