package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/baazardost/billing/internal/billing"
	"github.com/baazardost/billing/internal/domain/order"
)

type listResponse struct {
	Orders []orderView `json:"orders"`
	Count  int         `json:"count"`
}

type orderView struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	Items           []itemView      `json:"items"`
	Summary         summaryView     `json:"summary"`
	Commission      *commissionView `json:"commission,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
}

type itemView struct {
	ProductID    string  `json:"productId,omitempty"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Unit         string  `json:"unit,omitempty"`
	Price        float64 `json:"price"`
	SupplierID   string  `json:"supplierId,omitempty"`
	SupplierName string  `json:"supplierName,omitempty"`
}

type summaryView struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

type commissionView struct {
	TotalSales      float64 `json:"totalSales"`
	Commission      float64 `json:"commission"`
	SupplierEarning float64 `json:"supplierEarning"`
}

// ListOrders fetches every stored order document, normalizes each one in
// isolation (a malformed record is dropped and logged, never fatal), scopes
// the set to the viewer, and responds newest first with freshly derived
// summaries.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	v, err := viewerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := h.orders.ListDocs(ctx)
	if err != nil {
		zctx.From(ctx).Error("list order documents", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	all := make([]order.Order, 0, len(docs))
	for _, doc := range docs {
		o, err := h.normalizer.Normalize(doc)
		if err != nil {
			zctx.From(ctx).Warn("dropping malformed order", zap.Error(err))
			continue
		}
		all = append(all, *o)
	}

	scoped := order.Scope(all, v)
	order.SortByRecency(scoped)

	views := make([]orderView, len(scoped))
	for i, o := range scoped {
		views[i] = h.orderToView(o, v)
	}

	writeJSON(w, http.StatusOK, listResponse{Orders: views, Count: len(views)})
}

// GetDocument renders a billing document for a single order. Invoices are
// customer-facing over the whole order; commission statements are
// supplier-facing over the supplier's attributed lines. Render failures
// never produce a partial body.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	v, err := viewerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := billing.Kind(r.URL.Query().Get("kind"))
	switch {
	case kind == billing.KindInvoice && v.Role == order.RoleCustomer:
	case kind == billing.KindCommissionStatement && v.Role == order.RoleSupplier:
	case kind == billing.KindInvoice || kind == billing.KindCommissionStatement:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("document kind %q is not available for role %q", kind, v.Role))
		return
	default:
		writeError(w, http.StatusBadRequest, "kind must be invoice or commission-statement")
		return
	}

	id := chi.URLParam(r, "id")

	doc, err := h.orders.GetDoc(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		zctx.From(ctx).Error("fetch order document", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	o, err := h.normalizer.Normalize(doc)
	if err != nil {
		zctx.From(ctx).Warn("malformed order requested", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "order document is malformed")
		return
	}

	scoped := order.Scope([]order.Order{*o}, v)
	if len(scoped) == 0 {
		// Invisible orders are indistinguishable from missing ones.
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	rendered, err := h.renderer.Render(kind, scoped[0], v)
	if err != nil {
		zctx.From(ctx).Error("render document",
			zap.String("order_id", id),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to generate document")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(rendered.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rendered.Bytes)
}

func (h *Handler) orderToView(o order.Order, v order.Viewer) orderView {
	items := make([]itemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = itemView{
			ProductID:    it.ProductID,
			Name:         it.ProductName,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			Price:        it.UnitPrice.InexactFloat64(),
			SupplierID:   it.SupplierID,
			SupplierName: it.SupplierName,
		}
	}

	s := order.Summarize(o.Items, h.rates.Tax)
	if len(o.Items) == 0 && o.StoredSummary != nil {
		// Nothing to derive from; fall back to the summary cached at
		// write time so legacy zero-item documents still display totals.
		s = *o.StoredSummary
	}
	view := orderView{
		ID:     o.ID,
		Status: string(o.Status),
		Items:  items,
		Summary: summaryView{
			Subtotal:  s.Subtotal.InexactFloat64(),
			Tax:       s.Tax.InexactFloat64(),
			Total:     s.Total.InexactFloat64(),
			ItemCount: s.ItemCount,
		},
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
	}

	if v.Role == order.RoleSupplier {
		split := order.Commission(o.Items, h.rates.Commission)
		view.Commission = &commissionView{
			TotalSales:      split.TotalSales.InexactFloat64(),
			Commission:      split.Commission.InexactFloat64(),
			SupplierEarning: split.SupplierEarning.InexactFloat64(),
		}
	}

	return view
}
