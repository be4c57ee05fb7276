// Package handler exposes the order view and billing document endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baazardost/billing/internal/billing"
	"github.com/baazardost/billing/internal/domain/order"
)

// Handler serves role-scoped order listings and rendered billing documents.
type Handler struct {
	orders     order.Repository
	normalizer *order.Normalizer
	renderer   *billing.Renderer
	rates      billing.Rates
}

// New constructs a Handler with the required dependencies.
func New(
	orders order.Repository,
	normalizer *order.Normalizer,
	renderer *billing.Renderer,
	rates billing.Rates,
) *Handler {
	return &Handler{
		orders:     orders,
		normalizer: normalizer,
		renderer:   renderer,
		rates:      rates,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}/document", h.GetDocument)
	return r
}

// errorBody is the JSON error envelope shared by all endpoints.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}
