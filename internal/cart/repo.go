package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/smartecommerce/storefront/internal/orders"
)

type Repo struct{ DB *pgxpool.Pool }

// clampQuantity keeps cart quantities at 1 or more; the schema carries the
// same constraint, this keeps requests from ever tripping it.
func clampQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}

// Add upserts a cart line; an existing line for the same product gets the
// quantity added on top. Quantities below 1 are coerced to 1.
func (r *Repo) Add(ctx context.Context, userID, productID string, qty int) error {
	qty = clampQuantity(qty)

	var purchasable bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM products
			WHERE id=$1 AND is_active AND deleted_at IS NULL
		)`, productID).Scan(&purchasable)
	if err != nil {
		return err
	}
	if !purchasable {
		return fmt.Errorf("%w: %s", orders.ErrProductNotFound, productID)
	}

	_, err = r.DB.Exec(ctx, `
		INSERT INTO cart_items(user_id, product_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, productID, qty)
	return err
}

func (r *Repo) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	qty = clampQuantity(qty)
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET quantity=$3
		WHERE user_id=$1 AND product_id=$2`, userID, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("cart line not found: product %s", productID)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("cart line not found: product %s", productID)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, userID string) ([]LineDetail, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.product_id, p.name, ci.quantity, p.price::text, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LineDetail
	for rows.Next() {
		var d LineDetail
		var price string
		if err := rows.Scan(&d.ProductID, &d.ProductName, &d.Quantity, &price, &d.Stock); err != nil {
			return nil, err
		}
		if d.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		d.Subtotal = d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
		out = append(out, d)
	}
	return out, rows.Err()
}
