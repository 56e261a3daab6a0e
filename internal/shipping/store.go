package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartecommerce/storefront/internal/orders"
)

// Info is the delivery profile a user must have on file before checkout.
// One row per user; PUT replaces it wholesale.
type Info struct {
	UserID     string    `json:"-"`
	FullName   string    `json:"full_name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Phone      string    `json:"phone"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Store struct{ DB *pgxpool.Pool }

func (s *Store) Get(ctx context.Context, userID string) (*Info, error) {
	var i Info
	err := s.DB.QueryRow(ctx, `
		SELECT user_id, full_name, address, city, postal_code, phone, updated_at
		FROM shipping_info WHERE user_id=$1`, userID).
		Scan(&i.UserID, &i.FullName, &i.Address, &i.City, &i.PostalCode, &i.Phone, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrShippingInfoMissing
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *Store) Upsert(ctx context.Context, i *Info) error {
	i.UpdatedAt = time.Now().UTC()
	_, err := s.DB.Exec(ctx, `
		INSERT INTO shipping_info(user_id, full_name, address, city, postal_code, phone, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name=EXCLUDED.full_name, address=EXCLUDED.address, city=EXCLUDED.city,
		    postal_code=EXCLUDED.postal_code, phone=EXCLUDED.phone, updated_at=EXCLUDED.updated_at`,
		i.UserID, i.FullName, i.Address, i.City, i.PostalCode, i.Phone, i.UpdatedAt)
	return err
}
