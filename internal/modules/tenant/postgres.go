package tenant

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS stores (
	id       TEXT PRIMARY KEY,
	label    TEXT NOT NULL,
	position INT  NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS branches (
	id       TEXT NOT NULL,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	label    TEXT NOT NULL,
	position INT  NOT NULL DEFAULT 0,
	PRIMARY KEY (store_id, id)
);`

// Execer runs schema statements. *sql.DB satisfies it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Migrate creates the stores and branches tables when they do not exist.
func Migrate(ctx context.Context, db Execer) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

type postgresDirectory struct{ db *sql.DB }

// NewPostgresDirectory reads stores and branches from the stores/branches tables.
// Branch order is the position column, so the first branch is stable.
func NewPostgresDirectory(db *sql.DB) Directory { return &postgresDirectory{db: db} }

func (r *postgresDirectory) Stores(ctx context.Context) ([]Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.label, b.id, b.label
		FROM stores s
		LEFT JOIN branches b ON b.store_id = s.id
		ORDER BY s.position, s.id, b.position, b.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []Store
	index := map[string]int{}
	for rows.Next() {
		var storeID, storeLabel string
		var branchID, branchLabel sql.NullString
		if err := rows.Scan(&storeID, &storeLabel, &branchID, &branchLabel); err != nil {
			return nil, err
		}
		i, ok := index[storeID]
		if !ok {
			stores = append(stores, Store{ID: storeID, Label: storeLabel})
			i = len(stores) - 1
			index[storeID] = i
		}
		if branchID.Valid {
			stores[i].Branches = append(stores[i].Branches, Branch{ID: branchID.String, Label: branchLabel.String})
		}
	}
	return stores, rows.Err()
}

func (r *postgresDirectory) Store(ctx context.Context, id string) (Store, error) {
	s := Store{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT label FROM stores WHERE id=$1`, id).Scan(&s.Label)
	if err == sql.ErrNoRows {
		return Store{}, ErrStoreNotFound
	}
	if err != nil {
		return Store{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label FROM branches WHERE store_id=$1 ORDER BY position, id`, id)
	if err != nil {
		return Store{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Label); err != nil {
			return Store{}, err
		}
		s.Branches = append(s.Branches, b)
	}
	return s, rows.Err()
}
