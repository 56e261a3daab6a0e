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

	kafkax "github.com/smartecommerce/storefront/internal/kafka"
	"github.com/smartecommerce/storefront/internal/orders"
	"github.com/smartecommerce/storefront/internal/redisx"
)

// OrderReader is the read surface the handler needs; *orders.PgStore
// satisfies it.
type OrderReader interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	History(ctx context.Context, orderID string) ([]orders.StatusLogEntry, error)
	ListByUser(ctx context.Context, userID string, status *orders.Status) ([]orders.Order, error)
	ListAll(ctx context.Context, status *orders.Status) ([]orders.Order, error)
}

type OrdersHandler struct {
	Store     OrderReader
	Lifecycle *orders.Service
	Producer  *kafkax.Producer // order.status
	Redis     *redis.Client
	Service   string
}

type transitionReq struct {
	Status string `json:"status"`
}

type orderView struct {
	ID            string         `json:"id"`
	UserID        *string        `json:"user_id"`
	TotalAmount   string         `json:"total_amount"`
	Status        orders.Status  `json:"status"`
	PaymentMethod string         `json:"payment_method"`
	PlacedAt      time.Time      `json:"placed_at"`
	ProcessingAt  *time.Time     `json:"processing_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`
	AllowedNext   []orders.Status `json:"allowed_next,omitempty"`
	Lines         []lineView     `json:"lines,omitempty"`
}

type lineView struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

func toOrderView(o *orders.Order, withNext bool) orderView {
	v := orderView{
		ID:            o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount.String(),
		Status:        o.Status,
		PaymentMethod: string(o.PaymentMethod),
		PlacedAt:      o.PlacedAt,
		ProcessingAt:  o.ProcessingAt,
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
	}
	if withNext {
		v.AllowedNext = orders.AllowedNext(o.Status)
	}
	for _, l := range o.Lines {
		v.Lines = append(v.Lines, lineView{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
		})
	}
	return v
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders", h.listMine)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.status)
	r.Get("/orders/{id}/history", h.history)
	r.Get("/admin/orders", h.listAll)
	r.Get("/admin/orders/{id}", h.adminGet)
	r.Get("/admin/orders/{id}/history", h.adminHistory)
	r.Post("/admin/orders/{id}/status", h.transition)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListByUser(ctx, uid, statusFilter(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewList(list, false))
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListAll(ctx, statusFilter(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewList(list, true))
}

// get serves order detail to the owning user only; anyone else sees the
// same 404 as a nonexistent id.
func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.ownedOrder(ctx, chi.URLParam(r, "id"), uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o, true))
}

func (h *OrdersHandler) adminGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o, true))
}

func (h *OrdersHandler) ownedOrder(ctx context.Context, orderID, uid string) (*orders.Order, error) {
	o, err := h.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != uid {
		return nil, orders.ErrOrderNotFound
	}
	return o, nil
}

// status serves the Redis cache first; polling clients hit this often right
// after checkout.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if cached, err := h.Redis.Get(ctx, key).Result(); err == nil {
		writeJSON(w, http.StatusOK, map[string]string{"order_id": id, "status": cached})
		return
	}

	o, err := h.Store.Get(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = h.Redis.Set(ctx, key, string(o.Status), redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, map[string]string{"order_id": id, "status": string(o.Status)})
}

type historyEntryView struct {
	Previous  orders.Status `json:"previous_status"`
	Next      orders.Status `json:"new_status"`
	ChangedBy string        `json:"changed_by"`
	ChangedAt time.Time     `json:"changed_at"`
}

func (h *OrdersHandler) history(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if _, err := h.ownedOrder(ctx, id, uid); err != nil {
		writeErr(w, err)
		return
	}
	h.writeHistory(ctx, w, id)
}

func (h *OrdersHandler) adminHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	h.writeHistory(ctx, w, chi.URLParam(r, "id"))
}

func (h *OrdersHandler) writeHistory(ctx context.Context, w http.ResponseWriter, orderID string) {
	entries, err := h.Store.History(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]historyEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryView{e.Previous, e.Next, e.ChangedBy, e.ChangedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	who := actor(r)
	if who == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing actor identity"})
		return
	}
	var req transitionReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	to, ok := orders.ParseStatus(req.Status)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status: " + req.Status})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	o, entry, err := h.Lifecycle.Transition(ctx, orderID, to, who)
	if err != nil {
		writeErr(w, err)
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, statusKey, string(o.Status), redisx.TTLStatusCache).Err()

	payload := orders.StatusChangedPayload{
		OrderID:   o.ID,
		Previous:  entry.Previous,
		Next:      entry.Next,
		ChangedBy: entry.ChangedBy,
		ChangedAt: entry.ChangedAt,
	}
	if o.UserID != nil {
		payload.UserID = *o.UserID
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: o.ID,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusOK, toOrderView(o, true))
}

func statusFilter(r *http.Request) *orders.Status {
	if s, ok := orders.ParseStatus(r.URL.Query().Get("status")); ok {
		return &s
	}
	return nil
}

func viewList(list []orders.Order, withNext bool) []orderView {
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, toOrderView(&list[i], withNext))
	}
	return out
}
