package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/smartecommerce/storefront/internal/kafka"
	"github.com/smartecommerce/storefront/internal/orders"
	"github.com/smartecommerce/storefront/internal/redisx"
)

// Service consumes order events and records one user-facing notification
// per event. Events without an owning user (account removed) are dropped.
type Service struct {
	Store       *Store
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// Dedup by event_id; redelivery after a consumer restart is expected.
	dkey := fmt.Sprintf(redisx.KeyDedup, "notify", env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	var n *Notification
	switch env.EventType {
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		if p.UserID == "" {
			return nil
		}
		n = &Notification{
			UserID:  p.UserID,
			OrderID: p.OrderID,
			Message: fmt.Sprintf("Your order %s has been placed. Total: %s.", p.OrderID, p.TotalAmount),
		}
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		if p.UserID == "" {
			return nil
		}
		n = &Notification{
			UserID:  p.UserID,
			OrderID: p.OrderID,
			Message: fmt.Sprintf("Your order %s moved from %s to %s.", p.OrderID, p.Previous, p.Next),
		}
	default:
		return nil // ignore
	}

	n.CreatedAt = time.Now().UTC()
	if err := s.Store.Append(ctx, n); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	slog.Info("notification recorded",
		"service", s.ServiceName, "user_id", n.UserID, "order_id", n.OrderID, "event", env.EventType)
	return nil
}
