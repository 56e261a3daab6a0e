package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct{ DB *pgxpool.Pool }

func (s *Store) Append(ctx context.Context, n *Notification) error {
	return s.DB.QueryRow(ctx, `
		INSERT INTO notifications(user_id, order_id, message, created_at)
		VALUES ($1,$2,$3,$4) RETURNING id`,
		n.UserID, n.OrderID, n.Message, n.CreatedAt).Scan(&n.ID)
}

func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, order_id, message, created_at
		FROM notifications WHERE user_id=$1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
