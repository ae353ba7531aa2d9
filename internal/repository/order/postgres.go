package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clonedirect/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type postgresLedger struct {
	pool      *pgxpool.Pool
	logger    *zap.Logger
	dupWindow time.Duration
}

// NewPostgres returns a Ledger backed by the orders table. dupWindow is the
// rolling window for duplicate pending-order suppression.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger, dupWindow time.Duration) Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresLedger{pool: pool, logger: logger, dupWindow: dupWindow}
}

const orderColumns = `id, created_at, buyer_ref, contact_handle, payment_method, shipping_region, total::text, line_items, status`

func (l *postgresLedger) Insert(ctx context.Context, o *domain.Order) (int64, error) {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return 0, fmt.Errorf("order ledger: marshal lines: %w", err)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("order ledger: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent submissions for the same buyer so two inserts
	// cannot both pass the duplicate check.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, o.BuyerRef); err != nil {
		return 0, fmt.Errorf("order ledger: lock buyer: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM orders
    WHERE buyer_ref = $1 AND status = 'pending' AND created_at > now() - $2::interval
)
`, o.BuyerRef, l.dupWindow.String()).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("order ledger: duplicate check: %w", err)
	}
	if exists {
		return 0, domain.ErrDuplicateOrder
	}

	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO orders (buyer_ref, contact_handle, payment_method, shipping_region, total, line_items, status)
VALUES ($1, $2, $3, $4, $5, $6, 'pending')
RETURNING id, created_at
`, o.BuyerRef, o.ContactHandle, string(o.PaymentMethod), string(o.ShippingRegion), o.Total.StringFixed(2), lines).Scan(&id, &o.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("order ledger: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("order ledger: commit: %w", err)
	}

	o.ID = id
	o.Status = domain.OrderPending
	l.logger.Info("order recorded",
		zap.Int64("order_id", id), zap.String("buyer_ref", o.BuyerRef))
	return id, nil
}

func (l *postgresLedger) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	cmd, err := l.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("order ledger: set status %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (l *postgresLedger) Delete(ctx context.Context, id int64) error {
	cmd, err := l.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("order ledger: delete %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (l *postgresLedger) List(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if len(statuses) > 0 {
		vals := make([]string, len(statuses))
		for i, st := range statuses {
			vals[i] = string(st)
		}
		q += ` WHERE status = ANY($1)`
		args = append(args, vals)
	}
	q += ` ORDER BY created_at DESC`

	return l.query(ctx, q, args...)
}

func (l *postgresLedger) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'pending' AND created_at < $1 ORDER BY created_at ASC`
	return l.query(ctx, q, cutoff)
}

func (l *postgresLedger) ExpirePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := l.pool.Exec(ctx, `
UPDATE orders SET status = 'expired'
WHERE status = 'pending' AND created_at < $1
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("order ledger: expire pending: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (l *postgresLedger) query(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := l.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("order ledger: query: %w", err)
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order ledger: rows: %w", err)
	}
	return result, nil
}

func scanOrder(rows pgx.Rows) (*domain.Order, error) {
	var (
		o          domain.Order
		totalText  string
		linesJSON  []byte
		method     string
		region     string
		statusText string
	)
	if err := rows.Scan(&o.ID, &o.CreatedAt, &o.BuyerRef, &o.ContactHandle, &method, &region, &totalText, &linesJSON, &statusText); err != nil {
		return nil, fmt.Errorf("order ledger: scan: %w", err)
	}

	// NUMERIC comes back as text so the amount round-trips exactly.
	total, err := decimal.NewFromString(totalText)
	if err != nil {
		return nil, fmt.Errorf("order ledger: parse total %q: %w", totalText, err)
	}
	o.Total = total

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return nil, fmt.Errorf("order ledger: unmarshal lines: %w", err)
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.ShippingRegion = domain.Region(region)
	o.Status = domain.OrderStatus(statusText)
	return &o, nil
}
