package order

import "sort"

// Role identifies the kind of account requesting an order view.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
)

// Viewer is the role-scoped identity requesting a view of order data.
// Authentication happens upstream; a Viewer only carries identity.
type Viewer struct {
	Role         Role
	ID           string
	BusinessName string
	Email        string
	Phone        string
}

// MatchesSupplier reports whether a line item is attributed to the viewer's
// supplier identity. A match on either the supplier id or the business name
// attributes the line; absent fields never match.
func (v Viewer) MatchesSupplier(it LineItem) bool {
	if it.SupplierID != "" && it.SupplierID == v.ID {
		return true
	}
	return it.SupplierName != "" && it.SupplierName == v.BusinessName
}

// Scope narrows orders to what the viewer may see.
//
// Customers keep orders whose CustomerID equals the viewer id, items
// untouched. Suppliers keep only orders containing at least one attributed
// line item, and the returned view carries only those items — the full item
// list is never exposed to a supplier. Relative input order is preserved;
// sorting by recency is a separate explicit step.
func Scope(orders []Order, v Viewer) []Order {
	scoped := make([]Order, 0, len(orders))

	if v.Role == RoleSupplier {
		for _, o := range orders {
			matched := make([]LineItem, 0, len(o.Items))
			for _, it := range o.Items {
				if v.MatchesSupplier(it) {
					matched = append(matched, it)
				}
			}
			if len(matched) == 0 {
				continue
			}
			o.Items = matched
			scoped = append(scoped, o)
		}
		return scoped
	}

	for _, o := range orders {
		if o.CustomerID == v.ID {
			scoped = append(scoped, o)
		}
	}
	return scoped
}

// SortByRecency sorts orders newest first by CreatedAt. The sort is stable
// so orders with equal timestamps keep their relative input order.
func SortByRecency(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
