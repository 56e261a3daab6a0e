package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smartecommerce/storefront/internal/orders"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the business error taxonomy onto status codes; anything
// unrecognized is a persistence failure and turns into a generic 500.
func writeErr(w http.ResponseWriter, err error) {
	var stock *orders.InsufficientStockError
	var trans *orders.InvalidTransitionError
	switch {
	case errors.Is(err, orders.ErrEmptyCart), errors.Is(err, orders.ErrShippingInfoMissing):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.As(err, &stock):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     stock.Error(),
			"product":   stock.Product,
			"requested": stock.Requested,
			"available": stock.Available,
		})
	case errors.As(err, &trans):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": trans.Error(),
			"from":  trans.From,
			"to":    trans.To,
		})
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, orders.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// userID reads the authenticated identity the gateway forwards. Auth
// mechanics live outside this service.
func userID(r *http.Request) string { return r.Header.Get("X-User-Id") }

func actor(r *http.Request) string { return r.Header.Get("X-Actor") }
