package pos

import "context"

// Repository is the store of record for transactions.
type Repository interface {
	// List returns the matching transactions, most recent first.
	List(ctx context.Context, f Filter) ([]Transaction, error)

	// Create persists a draft and returns it with the assigned id,
	// timestamp and completed status.
	Create(ctx context.Context, d Draft) (Transaction, error)

	// Void moves a transaction to voided. Voiding an already voided
	// transaction succeeds without changes; an unknown id is ErrNotFound.
	Void(ctx context.Context, id, reason string) error
}
