package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/smartecommerce/storefront/internal/orders"
)

// Repo covers storefront browsing and admin CRUD. Stock is deliberately
// absent from Update: it only moves through checkout and the cancel-restock
// path.
type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, name, description, price::text, stock, category, image_url,
	is_active, created_at, updated_at, deleted_at`

func (r *Repo) List(ctx context.Context, f Filter) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE deleted_at IS NULL AND is_active`
	var args []any
	n := 0
	arg := func(v any) string {
		args = append(args, v)
		n++
		return fmt.Sprintf("$%d", n)
	}

	if f.Search != "" {
		q += ` AND name ILIKE ` + arg("%"+f.Search+"%")
	}
	if f.Category != "" {
		q += ` AND category = ` + arg(f.Category)
	}
	if f.MinPrice != nil {
		q += ` AND price >= ` + arg(f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q += ` AND price <= ` + arg(f.MaxPrice.String())
	}

	switch f.Sort {
	case SortPriceAsc:
		q += ` ORDER BY price`
	case SortPriceDesc:
		q += ` ORDER BY price DESC`
	default:
		q += ` ORDER BY name`
	}

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", orders.ErrProductNotFound, id)
	}
	return p, err
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock cannot be negative, got %d", p.Stock)
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price, stock, category, image_url, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Stock, p.Category, p.ImageURL, p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

// Update rewrites the descriptive fields only.
func (r *Repo) Update(ctx context.Context, p *Product) error {
	if !p.Price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", p.Price)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4, category=$5, image_url=$6, is_active=$7, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.ImageURL, p.Active)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", orders.ErrProductNotFound, p.ID)
	}
	return nil
}

func (r *Repo) SoftDelete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET deleted_at=now(), is_active=false, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", orders.ErrProductNotFound, id)
	}
	return nil
}

func (r *Repo) LowStockCount(ctx context.Context, threshold int) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE deleted_at IS NULL AND stock <= $1`, threshold).Scan(&n)
	return n, err
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Category,
		&p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	return &p, nil
}
