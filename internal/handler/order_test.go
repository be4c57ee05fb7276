package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baazardost/billing/internal/billing"
	"github.com/baazardost/billing/internal/domain/order"
)

// --- Mock repository ---

type mockOrderRepo struct {
	docs    []storedDoc
	listErr error
}

type storedDoc struct {
	id  string
	doc []byte
}

func (m *mockOrderRepo) ListDocs(_ context.Context) ([][]byte, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	docs := make([][]byte, len(m.docs))
	for i, d := range m.docs {
		docs[i] = d.doc
	}
	return docs, nil
}

func (m *mockOrderRepo) GetDoc(_ context.Context, id string) ([]byte, error) {
	for _, d := range m.docs {
		if d.id == id {
			return d.doc, nil
		}
	}
	return nil, order.ErrNotFound
}

// --- Helpers ---

var testRates = billing.Rates{
	Tax:        decimal.RequireFromString("0.18"),
	Commission: decimal.RequireFromString("0.15"),
}

func newTestHandler(repo *mockOrderRepo) http.Handler {
	h := New(repo, order.NewNormalizer(), billing.NewRenderer(testRates), testRates)
	return h.Routes()
}

var (
	docU1 = storedDoc{id: "ord-1", doc: []byte(`{
		"id": "ord-1", "userId": "U1", "status": "confirmed",
		"createdAt": "2024-03-01T10:00:00Z",
		"items": [
			{"name": "Onions", "price": 100, "quantity": 2, "unit": "kg",
			 "supplierId": "S1", "supplierName": "Sharma Wholesale"},
			{"name": "Paper bags", "price": 50, "quantity": 1, "unit": "piece",
			 "supplierId": "S2", "supplierName": "Gupta Traders"}
		]
	}`)}
	docU2 = storedDoc{id: "ord-2", doc: []byte(`{
		"id": "ord-2", "userId": "U2", "status": "pending",
		"createdAt": "2024-03-02T10:00:00Z",
		"items": [{"name": "Tomatoes", "price": 20, "quantity": 5, "unit": "kg"}]
	}`)}
	docMalformed = storedDoc{id: "ord-bad", doc: []byte(`{"id": "ord-bad", "userId": "U1"}`)}
)

func doRequest(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// --- Tests ---

func TestListOrders_Customer(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1, docU2}})

	rec := doRequest(t, h, "/orders?role=customer&viewer_id=U1")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeList(t, rec)
	require.Equal(t, 1, resp.Count)

	o := resp.Orders[0]
	assert.Equal(t, "ord-1", o.ID)
	assert.Len(t, o.Items, 2)
	assert.Nil(t, o.Commission)
	assert.InDelta(t, 250.0, o.Summary.Subtotal, 1e-9)
	assert.InDelta(t, 45.0, o.Summary.Tax, 1e-9)
	assert.InDelta(t, 295.0, o.Summary.Total, 1e-9)
	assert.Equal(t, 3, o.Summary.ItemCount)
}

func TestListOrders_SupplierScopesItems(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1, docU2}})

	rec := doRequest(t, h, "/orders?role=supplier&viewer_id=S1&business_name=Sharma+Wholesale")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeList(t, rec)
	require.Equal(t, 1, resp.Count)

	o := resp.Orders[0]
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Onions", o.Items[0].Name)

	require.NotNil(t, o.Commission)
	assert.InDelta(t, 200.0, o.Commission.TotalSales, 1e-9)
	assert.InDelta(t, 30.0, o.Commission.Commission, 1e-9)
	assert.InDelta(t, 170.0, o.Commission.SupplierEarning, 1e-9)
}

func TestListOrders_MalformedOrderDropped(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docMalformed, docU1}})

	rec := doRequest(t, h, "/orders?role=customer&viewer_id=U1")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeList(t, rec)
	// One bad record must not prevent the rest from being shown.
	assert.Equal(t, 1, resp.Count)
}

func TestListOrders_ZeroItemOrderFallsBackToStoredSummary(t *testing.T) {
	legacy := storedDoc{id: "ord-old", doc: []byte(`{
		"id": "ord-old", "userId": "U1", "createdAt": "2023-01-01T00:00:00Z",
		"items": [],
		"summary": {"subtotal": 500, "tax": 90, "total": 590, "itemCount": 4}
	}`)}
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{legacy}})

	rec := doRequest(t, h, "/orders?role=customer&viewer_id=U1")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeList(t, rec)
	require.Equal(t, 1, resp.Count)

	o := resp.Orders[0]
	assert.InDelta(t, 500.0, o.Summary.Subtotal, 1e-9)
	assert.InDelta(t, 90.0, o.Summary.Tax, 1e-9)
	assert.InDelta(t, 590.0, o.Summary.Total, 1e-9)
	assert.Equal(t, 4, o.Summary.ItemCount)
}

func TestListOrders_SortedNewestFirst(t *testing.T) {
	u1Newer := storedDoc{id: "ord-3", doc: []byte(`{
		"id": "ord-3", "userId": "U1", "createdAt": "2024-03-05T10:00:00Z", "items": []
	}`)}
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1, u1Newer}})

	rec := doRequest(t, h, "/orders?role=customer&viewer_id=U1")

	resp := decodeList(t, rec)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "ord-3", resp.Orders[0].ID)
	assert.Equal(t, "ord-1", resp.Orders[1].ID)
}

func TestListOrders_InvalidRole(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{})

	rec := doRequest(t, h, "/orders?role=admin&viewer_id=U1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_MissingViewerID(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{})

	rec := doRequest(t, h, "/orders?role=customer")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_RepositoryError(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{listErr: errors.New("connection refused")})

	rec := doRequest(t, h, "/orders?role=customer&viewer_id=U1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetDocument_Invoice(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1}})

	rec := doRequest(t, h, "/orders/ord-1/document?kind=invoice&role=customer&viewer_id=U1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "invoice-ord-1-")
	assert.Equal(t, "%PDF", rec.Body.String()[:4])
}

func TestGetDocument_CommissionStatement(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1}})

	rec := doRequest(t, h, "/orders/ord-1/document?kind=commission-statement&role=supplier&viewer_id=S1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "commission-statement-ord-1-")
}

func TestGetDocument_NotFound(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{})

	rec := doRequest(t, h, "/orders/ord-404/document?kind=invoice&role=customer&viewer_id=U1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDocument_NotVisibleIsNotFound(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1}})

	rec := doRequest(t, h, "/orders/ord-1/document?kind=invoice&role=customer&viewer_id=U2")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDocument_KindRoleMismatch(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1}})

	rec := doRequest(t, h, "/orders/ord-1/document?kind=invoice&role=supplier&viewer_id=S1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocument_UnknownKind(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docU1}})

	rec := doRequest(t, h, "/orders/ord-1/document?kind=receipt&role=customer&viewer_id=U1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocument_MalformedOrder(t *testing.T) {
	h := newTestHandler(&mockOrderRepo{docs: []storedDoc{docMalformed}})

	rec := doRequest(t, h, "/orders/ord-bad/document?kind=invoice&role=customer&viewer_id=U1")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
