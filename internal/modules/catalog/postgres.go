package catalog

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_categories (
	store_id    TEXT NOT NULL,
	category_id TEXT NOT NULL,
	label       TEXT NOT NULL,
	position    INT  NOT NULL DEFAULT 0,
	PRIMARY KEY (store_id, category_id)
);
CREATE TABLE IF NOT EXISTS branch_products (
	store_id   TEXT NOT NULL,
	branch_id  TEXT NOT NULL,
	product_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	price      NUMERIC(14,2) NOT NULL CHECK (price >= 0),
	stock      INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
	category   TEXT NOT NULL,
	position   INT  NOT NULL DEFAULT 0,
	PRIMARY KEY (store_id, branch_id, product_id)
);`

// Execer runs schema statements. *sql.DB satisfies it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Migrate creates the store_categories and branch_products tables when they
// do not exist.
func Migrate(ctx context.Context, db Execer) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

type postgresProvider struct{ db *sql.DB }

// NewPostgresProvider reads per-branch products and per-store categories from
// the branch_products and store_categories tables.
func NewPostgresProvider(db *sql.DB) Provider { return &postgresProvider{db: db} }

func (r *postgresProvider) ProductsFor(ctx context.Context, storeID, branchID string) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, price, stock, category
		FROM branch_products
		WHERE store_id=$1 AND branch_id=$2
		ORDER BY position, product_id`, storeID, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresProvider) CategoriesFor(ctx context.Context, storeID string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category_id, label FROM store_categories
		WHERE store_id=$1 ORDER BY position, category_id`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Label); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return withAll(categories), nil
}
