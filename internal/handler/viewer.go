package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/baazardost/billing/internal/domain/order"
)

var (
	errInvalidRole     = errors.New("role must be customer or supplier")
	errMissingViewerID = errors.New("viewer_id is required")
)

// viewerFromRequest builds the viewer identity from query parameters.
// Authentication is handled upstream by the platform gateway; these values
// identify the caller, they do not authorize it.
func viewerFromRequest(r *http.Request) (order.Viewer, error) {
	q := r.URL.Query()

	role := order.Role(q.Get("role"))
	switch role {
	case order.RoleCustomer, order.RoleSupplier:
	default:
		return order.Viewer{}, errInvalidRole
	}

	v := order.Viewer{
		Role:         role,
		ID:           q.Get("viewer_id"),
		BusinessName: q.Get("business_name"),
		Email:        q.Get("email"),
		Phone:        q.Get("phone"),
	}
	if v.ID == "" {
		return order.Viewer{}, errMissingViewerID
	}

	return v, nil
}
