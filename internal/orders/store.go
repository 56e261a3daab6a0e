package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgStore owns every read and write against the orders tables. Transition
// writes go through Within; plain reads run straight on the pool.
type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) Within(ctx context.Context, fn func(Store) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) GetForUpdate(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `
		SELECT id, user_id, total_amount::text, status, payment_method,
		       placed_at, processing_at, completed_at, cancelled_at
		FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (t *pgTx) SaveStatus(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET status=$2, placed_at=$3, processing_at=$4, completed_at=$5, cancelled_at=$6
		WHERE id=$1`,
		o.ID, string(o.Status), o.PlacedAt, o.ProcessingAt, o.CompletedAt, o.CancelledAt)
	return err
}

func (t *pgTx) AppendLog(ctx context.Context, e *StatusLogEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_status_log(order_id, previous_status, new_status, changed_by, changed_at)
		VALUES ($1,$2,$3,$4,$5)`,
		e.OrderID, string(e.Previous), string(e.Next), e.ChangedBy, e.ChangedAt)
	return err
}

func (t *pgTx) Restock(ctx context.Context, orderID string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE products p
		SET stock = p.stock + ol.quantity, updated_at = now()
		FROM order_lines ol
		WHERE ol.order_id = $1 AND ol.product_id = p.id`, orderID)
	return err
}

// --- pool-scoped reads ---

func (s *PgStore) Get(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `
		SELECT id, user_id, total_amount::text, status, payment_method,
		       placed_at, processing_at, completed_at, cancelled_at
		FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price::text
		FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		var price string
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &price); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

// History returns the audit trail most-recent-first.
func (s *PgStore) History(ctx context.Context, orderID string) ([]StatusLogEntry, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, previous_status, new_status, changed_by, changed_at
		FROM order_status_log WHERE order_id=$1
		ORDER BY changed_at DESC, id DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusLogEntry
	for rows.Next() {
		var e StatusLogEntry
		var prev, next string
		if err := rows.Scan(&e.ID, &e.OrderID, &prev, &next, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, err
		}
		e.Previous, e.Next = Status(prev), Status(next)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PgStore) ListByUser(ctx context.Context, userID string, status *Status) ([]Order, error) {
	return s.list(ctx, `
		SELECT id, user_id, total_amount::text, status, payment_method,
		       placed_at, processing_at, completed_at, cancelled_at
		FROM orders
		WHERE user_id=$1 AND ($2::text IS NULL OR status=$2)
		ORDER BY placed_at DESC`, userID, statusArg(status))
}

func (s *PgStore) ListAll(ctx context.Context, status *Status) ([]Order, error) {
	return s.list(ctx, `
		SELECT id, user_id, total_amount::text, status, payment_method,
		       placed_at, processing_at, completed_at, cancelled_at
		FROM orders
		WHERE $1::text IS NULL OR status=$1
		ORDER BY placed_at DESC`, statusArg(status))
}

func (s *PgStore) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func statusArg(s *Status) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status, method, total string
	if err := row.Scan(&o.ID, &o.UserID, &total, &status, &method,
		&o.PlacedAt, &o.ProcessingAt, &o.CompletedAt, &o.CancelledAt); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	o.PaymentMethod = PaymentMethod(method)
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total amount: %w", err)
	}
	return &o, nil
}
