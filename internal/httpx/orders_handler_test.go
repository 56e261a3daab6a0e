package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/smartecommerce/storefront/internal/orders"
)

type stubOrderReader struct {
	orders map[string]*orders.Order
	logs   map[string][]orders.StatusLogEntry
}

func (s *stubOrderReader) Get(_ context.Context, id string) (*orders.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return o, nil
}

func (s *stubOrderReader) History(_ context.Context, id string) ([]orders.StatusLogEntry, error) {
	return s.logs[id], nil
}

func (s *stubOrderReader) ListByUser(_ context.Context, userID string, _ *orders.Status) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrderReader) ListAll(_ context.Context, _ *orders.Status) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func newOrdersRouter(t *testing.T) http.Handler {
	t.Helper()
	owner := "user-1"
	reader := &stubOrderReader{
		orders: map[string]*orders.Order{
			"ord-1": {
				ID:            "ord-1",
				UserID:        &owner,
				TotalAmount:   decimal.RequireFromString("25.00"),
				Status:        orders.StatusPlaced,
				PaymentMethod: orders.PaymentCashOnDelivery,
				PlacedAt:      time.Now().UTC(),
			},
		},
		logs: map[string][]orders.StatusLogEntry{
			"ord-1": {{OrderID: "ord-1", Previous: orders.StatusPlaced, Next: orders.StatusProcessing, ChangedBy: "admin"}},
		},
	}
	r := NewRouter()
	(&OrdersHandler{Store: reader}).Register(r)
	return r
}

func getWithUser(t *testing.T, h http.Handler, path, uid string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if uid != "" {
		req.Header.Set("X-User-Id", uid)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderDetailVisibleToOwnerOnly(t *testing.T) {
	h := newOrdersRouter(t)

	assert.Equal(t, http.StatusOK, getWithUser(t, h, "/orders/ord-1", "user-1").Code)
	assert.Equal(t, http.StatusNotFound, getWithUser(t, h, "/orders/ord-1", "user-2").Code)
	assert.Equal(t, http.StatusUnauthorized, getWithUser(t, h, "/orders/ord-1", "").Code)
	assert.Equal(t, http.StatusNotFound, getWithUser(t, h, "/orders/no-such", "user-1").Code)
}

func TestOrderHistoryVisibleToOwnerOnly(t *testing.T) {
	h := newOrdersRouter(t)

	assert.Equal(t, http.StatusOK, getWithUser(t, h, "/orders/ord-1/history", "user-1").Code)
	assert.Equal(t, http.StatusNotFound, getWithUser(t, h, "/orders/ord-1/history", "user-2").Code)
	assert.Equal(t, http.StatusUnauthorized, getWithUser(t, h, "/orders/ord-1/history", "").Code)
}

func TestAdminOrderDetailUnscoped(t *testing.T) {
	h := newOrdersRouter(t)

	assert.Equal(t, http.StatusOK, getWithUser(t, h, "/admin/orders/ord-1", "user-2").Code)
	assert.Equal(t, http.StatusOK, getWithUser(t, h, "/admin/orders/ord-1/history", "").Code)
}
