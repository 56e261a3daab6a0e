package checkout

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/smartecommerce/storefront/internal/orders"
)

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

func (t *pgTx) HasShippingInfo(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM shipping_info WHERE user_id=$1)`, userID).Scan(&ok)
	return ok, err
}

// CartForUpdate locks the referenced product rows (ordered by product id so
// competing checkouts take locks in the same order) and returns the cart
// joined with current price and stock.
func (t *pgTx) CartForUpdate(ctx context.Context, userID string) ([]CartLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT ci.product_id, p.name, ci.quantity, p.price::text, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF p`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		var price string
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &price, &l.Available); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total_amount, status, payment_method, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		o.ID, o.UserID, o.TotalAmount.String(), string(o.Status), string(o.PaymentMethod), o.PlacedAt)
	if err != nil {
		return err
	}
	for _, l := range o.Lines {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_lines(order_id, product_id, quantity, unit_price)
			VALUES ($1,$2,$3,$4)`,
			l.OrderID, l.ProductID, l.Quantity, l.UnitPrice.String()); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return err
	}
	// The stock was verified under the same lock, so this only trips if the
	// schema constraint and the check ever disagree.
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("stock decrement affected no rows for product %s", productID)
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
