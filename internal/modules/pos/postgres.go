package pos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS pos_transactions (
	id          TEXT PRIMARY KEY,
	ts          BIGINT NOT NULL,
	store_id    TEXT NOT NULL,
	store_name  TEXT NOT NULL,
	branch_id   TEXT NOT NULL,
	branch_name TEXT NOT NULL,
	items       JSONB NOT NULL,
	subtotal    NUMERIC(14,2) NOT NULL,
	discount    NUMERIC(14,2) NOT NULL,
	total       NUMERIC(14,2) NOT NULL,
	status      TEXT NOT NULL,
	voided_at   BIGINT,
	void_reason TEXT
);
CREATE INDEX IF NOT EXISTS pos_transactions_scope_idx
	ON pos_transactions (store_id, branch_id, ts DESC);`

// Migrate creates the pos_transactions table when it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

type postgresRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db, now: time.Now} }

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]Transaction, error) {
	query := `SELECT id,ts,store_id,store_name,branch_id,branch_name,items,
	                 subtotal,discount,total,status,voided_at,void_reason
	          FROM pos_transactions WHERE 1=1`
	args := []interface{}{}
	n := 1
	if f.StoreID != "" {
		query += fmt.Sprintf(` AND store_id=$%d`, n)
		args = append(args, f.StoreID)
		n++
	}
	if f.BranchID != "" {
		query += fmt.Sprintf(` AND branch_id=$%d`, n)
		args = append(args, f.BranchID)
	}
	query += ` ORDER BY ts DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []Transaction{}
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, d Draft) (Transaction, error) {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return Transaction{}, err
	}
	t := newTransaction(d, r.now())
	for attempt := 0; ; attempt++ {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO pos_transactions
			  (id, ts, store_id, store_name, branch_id, branch_name, items,
			   subtotal, discount, total, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			t.ID, t.Timestamp, t.StoreID, t.StoreName, t.BranchID, t.BranchName, items,
			t.Subtotal, t.Discount, t.Total, t.Status)
		if err == nil {
			return t, nil
		}
		if !isUniqueViolation(err) || attempt == 2 {
			return Transaction{}, err
		}
		t.ID = NewTransactionID(r.now())
	}
}

func (r *postgresRepo) Void(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pos_transactions
		SET status=$2, voided_at=$3, void_reason=NULLIF($4, '')
		WHERE id=$1 AND status=$5`,
		id, StatusVoided, r.now().UnixMilli(), reason, StatusCompleted)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pos_transactions WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// ── scanner ───────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (Transaction, error) {
	var t Transaction
	var items []byte
	var voidedAt sql.NullInt64
	var reason sql.NullString
	err := row.Scan(&t.ID, &t.Timestamp, &t.StoreID, &t.StoreName, &t.BranchID, &t.BranchName,
		&items, &t.Subtotal, &t.Discount, &t.Total, &t.Status, &voidedAt, &reason)
	if err != nil {
		return Transaction{}, err
	}
	if err := json.Unmarshal(items, &t.Items); err != nil {
		return Transaction{}, fmt.Errorf("decode items of %s: %w", t.ID, err)
	}
	if voidedAt.Valid {
		at := voidedAt.Int64
		t.VoidedAt = &at
	}
	if reason.Valid {
		t.VoidReason = reason.String
	}
	return t, nil
}

// isUniqueViolation reports a PostgreSQL unique constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
