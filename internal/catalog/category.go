package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryInUse blocks deletion while products still carry the name.
	ErrCategoryInUse = errors.New("category still referenced by products")
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// normalizeCategoryName trims surrounding whitespace and rejects empty
// names; comparison stays case-sensitive, the unique index enforces it.
func normalizeCategoryName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", errors.New("category name is required")
	}
	return n, nil
}

// Categories manages the browse vocabulary. Products reference a category
// by name; Update renames the products in the same transaction so the two
// never drift.
type Categories struct{ DB *pgxpool.Pool }

func (r *Categories) List(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Categories) Get(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Categories) Create(ctx context.Context, c *Category) error {
	name, err := normalizeCategoryName(c.Name)
	if err != nil {
		return err
	}
	c.Name = name
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err = r.DB.Exec(ctx, `
		INSERT INTO categories(id, name, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return err
}

// Update renames the category and every product carrying the old name as
// one transaction.
func (r *Categories) Update(ctx context.Context, c *Category) error {
	name, err := normalizeCategoryName(c.Name)
	if err != nil {
		return err
	}
	c.Name = name

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var old string
	err = tx.QueryRow(ctx,
		`SELECT name FROM categories WHERE id=$1 FOR UPDATE`, c.ID).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, c.ID)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE categories SET name=$2, description=$3, updated_at=now()
		WHERE id=$1`, c.ID, c.Name, c.Description); err != nil {
		return err
	}
	if old != c.Name {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET category=$2, updated_at=now()
			WHERE category=$1`, old, c.Name); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Categories) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var name string
	err = tx.QueryRow(ctx,
		`SELECT name FROM categories WHERE id=$1 FOR UPDATE`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	if err != nil {
		return err
	}

	var inUse bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM products WHERE category=$1 AND deleted_at IS NULL
		)`, name).Scan(&inUse); err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: %s", ErrCategoryInUse, name)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ValidateProductCategory accepts an empty category (uncategorized) and
// otherwise requires the name to exist in the vocabulary.
func (r *Categories) ValidateProductCategory(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	var ok bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE name=$1)`, name).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	return nil
}
