package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/smartecommerce/storefront/internal/checkout"
	kafkax "github.com/smartecommerce/storefront/internal/kafka"
	"github.com/smartecommerce/storefront/internal/orders"
	"github.com/smartecommerce/storefront/internal/redisx"
)

type CheckoutHandler struct {
	Checkout *checkout.Service
	Producer *kafkax.Producer // order.placed
	Redis    *redis.Client
	Service  string
}

type checkoutResp struct {
	OrderID     string `json:"order_id"`
	TotalAmount string `json:"total_amount"`
	Status      string `json:"status"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.createOrder)
}

func (h *CheckoutHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Checkout.CreateOrder(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}

	// Cache status so GET /orders/{id} is cheap right after checkout.
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, statusKey, string(o.Status), redisx.TTLStatusCache).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: o.ID,
		Payload:       kafkax.MustMarshal(orders.NewOrderPlacedPayload(o)),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusCreated, checkoutResp{
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount.String(),
		Status:      string(o.Status),
	})
}
