package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartecommerce/storefront/internal/orders"
	"github.com/smartecommerce/storefront/internal/shipping"
)

type ShippingHandler struct {
	Store *shipping.Store
}

type shippingReq struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

func (h *ShippingHandler) Register(r *chi.Mux) {
	r.Get("/shipping-info", h.get)
	r.Put("/shipping-info", h.put)
}

func (h *ShippingHandler) get(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	info, err := h.Store.Get(ctx, uid)
	if errors.Is(err, orders.ErrShippingInfoMissing) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ShippingHandler) put(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
		return
	}
	var req shippingReq
	if err := decodeJSON(r, &req); err != nil || req.FullName == "" || req.Address == "" || req.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	info := &shipping.Info{
		UserID:     uid,
		FullName:   req.FullName,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
	}
	if err := h.Store.Upsert(ctx, info); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
