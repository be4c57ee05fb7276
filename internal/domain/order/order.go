package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle states. Transitions are owned by the
// checkout and fulfilment collaborators; this service only reads the value.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ErrNotFound is returned when no order document exists for a given id.
var ErrNotFound = errors.New("order not found")

// LineItem is one product line within an order. SupplierID and SupplierName
// identify which supplier fulfils the line; either may be absent in older
// documents.
type LineItem struct {
	ProductID    string
	ProductName  string
	Quantity     int
	Unit         string
	UnitPrice    decimal.Decimal
	OrderType    string
	SupplierID   string
	SupplierName string
}

// Summary is the monetary aggregate derived from a set of line items.
// ItemCount sums quantities, not distinct lines.
type Summary struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// CommissionSplit is the supplier-side aggregate over an already-scoped
// item set.
type CommissionSplit struct {
	TotalSales      decimal.Decimal
	Commission      decimal.Decimal
	SupplierEarning decimal.Decimal
}

// Order is one purchase transaction. Orders are created by an external
// checkout process and are read-only here.
type Order struct {
	ID            string
	CustomerID    string
	CustomerEmail string
	Items         []LineItem
	Status        Status

	// StoredSummary is the summary cached in the document at write time.
	// It may be stale: treat it as a display fallback only and derive fresh
	// values with Summarize.
	StoredSummary *Summary

	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeliveryAddress string
	PaymentMethod   string
}

// Repository provides read access to raw persisted order documents.
// Documents are opaque JSON at this level; Normalizer turns them into Orders.
type Repository interface {
	ListDocs(ctx context.Context) ([][]byte, error)
	GetDoc(ctx context.Context, id string) ([]byte, error)
}
