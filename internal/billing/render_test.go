package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baazardost/billing/internal/domain/order"
)

func newTestRenderer() *Renderer {
	r := NewRenderer(Rates{
		Tax:        decimal.RequireFromString("0.18"),
		Commission: decimal.RequireFromString("0.15"),
	})
	r.now = func() time.Time {
		return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	}
	return r
}

func testOrder() order.Order {
	return order.Order{
		ID:            "ord-1234567890",
		CustomerID:    "U1",
		CustomerEmail: "vendor@example.com",
		Status:        order.StatusConfirmed,
		CreatedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Items: []order.LineItem{
			{
				ProductName:  "Onions",
				Quantity:     10,
				Unit:         "kg",
				UnitPrice:    decimal.RequireFromString("32.50"),
				SupplierID:   "S1",
				SupplierName: "Sharma Wholesale",
			},
			{
				ProductName:  "Paper bags",
				Quantity:     200,
				Unit:         "piece",
				UnitPrice:    decimal.RequireFromString("1.20"),
				SupplierID:   "S1",
				SupplierName: "Sharma Wholesale",
			},
		},
		DeliveryAddress: "Stall 14, Gandhi Market",
		PaymentMethod:   "cash",
	}
}

func TestRender_Invoice(t *testing.T) {
	doc, err := newTestRenderer().Render(KindInvoice, testOrder(), order.Viewer{
		Role: order.RoleCustomer,
		ID:   "U1",
	})
	require.NoError(t, err)

	assert.Equal(t, "invoice-ord-1234-2024-03-15.pdf", doc.Filename)
	require.NotEmpty(t, doc.Bytes)
	assert.Equal(t, "%PDF", string(doc.Bytes[:4]))
}

func TestRender_CommissionStatement(t *testing.T) {
	v := order.Viewer{
		Role:         order.RoleSupplier,
		ID:           "S1",
		BusinessName: "Sharma Wholesale",
		Email:        "sharma@example.com",
	}
	o := testOrder()
	o.Items = order.Scope([]order.Order{o}, v)[0].Items

	doc, err := newTestRenderer().Render(KindCommissionStatement, o, v)
	require.NoError(t, err)

	assert.Equal(t, "commission-statement-ord-1234-2024-03-15.pdf", doc.Filename)
	assert.Equal(t, "%PDF", string(doc.Bytes[:4]))
}

func TestRender_UnknownKind(t *testing.T) {
	doc, err := newTestRenderer().Render(Kind("receipt"), testOrder(), order.Viewer{})

	require.Error(t, err)
	assert.Nil(t, doc)
}

func TestRender_FilenameDeterministic(t *testing.T) {
	r := newTestRenderer()

	first, err := r.Render(KindInvoice, testOrder(), order.Viewer{})
	require.NoError(t, err)
	second, err := r.Render(KindInvoice, testOrder(), order.Viewer{})
	require.NoError(t, err)

	assert.Equal(t, first.Filename, second.Filename)
}

func TestRender_ShortOrderID(t *testing.T) {
	o := testOrder()
	o.ID = "ab12"

	doc, err := newTestRenderer().Render(KindInvoice, o, order.Viewer{})
	require.NoError(t, err)

	assert.Equal(t, "invoice-ab12-2024-03-15.pdf", doc.Filename)
}

func TestRender_ZeroItemOrder(t *testing.T) {
	o := testOrder()
	o.Items = nil

	doc, err := newTestRenderer().Render(KindInvoice, o, order.Viewer{})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Bytes)
}

func TestRender_LongTablePaginates(t *testing.T) {
	o := testOrder()
	o.Items = nil
	for i := 0; i < 80; i++ {
		o.Items = append(o.Items, order.LineItem{
			ProductName: "Tomatoes",
			Quantity:    i + 1,
			Unit:        "kg",
			UnitPrice:   decimal.RequireFromString("18.00"),
		})
	}

	doc, err := newTestRenderer().Render(KindInvoice, o, order.Viewer{})
	require.NoError(t, err)
	// 80 rows cannot fit one A4 page; the document must still render whole.
	assert.Greater(t, len(doc.Bytes), 4)
}
