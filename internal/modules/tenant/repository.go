package tenant

import "context"

// Directory lists the stores of the chain with their branches.
type Directory interface {
	Stores(ctx context.Context) ([]Store, error)
	Store(ctx context.Context, id string) (Store, error)
}
