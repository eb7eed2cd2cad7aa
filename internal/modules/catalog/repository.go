package catalog

import "context"

// Provider is the read-only product and category lookup, keyed by store and
// branch. Unknown scopes yield empty results, not errors.
type Provider interface {
	// ProductsFor lists the products stocked by one branch of a store.
	ProductsFor(ctx context.Context, storeID, branchID string) ([]Product, error)

	// CategoriesFor lists a store's categories, always starting with AllCategory.
	CategoriesFor(ctx context.Context, storeID string) ([]Category, error)
}
