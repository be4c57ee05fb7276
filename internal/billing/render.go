// Package billing renders printable billing documents (customer invoices
// and supplier commission statements) from normalized, viewer-scoped
// orders. Monetary values are always recomputed from line items; the
// summary stored in the order document is never trusted here.
package billing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/baazardost/billing/internal/domain/order"
)

// Kind selects which billing document to produce.
type Kind string

const (
	KindInvoice             Kind = "invoice"
	KindCommissionStatement Kind = "commission-statement"
)

// Rates carries the configured billing fractions. Tax applies to invoice
// subtotals, Commission to supplier sales.
type Rates struct {
	Tax        decimal.Decimal
	Commission decimal.Decimal
}

// Document is a rendered artifact plus its suggested filename.
type Document struct {
	Bytes    []byte
	Filename string
}

const (
	pageMargin  = 15.0
	contentW    = 180.0 // A4 width minus margins
	rowH        = 7.0
	issuerName  = "Baazar Dost"
	issuerLine1 = "Local Wholesale Marketplace"
	issuerLine2 = "support@baazardost.in"
)

// Renderer lays out billing documents. The clock is injected so artifact
// names are deterministic in tests.
type Renderer struct {
	rates Rates
	now   func() time.Time
}

// NewRenderer creates a Renderer with the given billing rates.
func NewRenderer(rates Rates) *Renderer {
	return &Renderer{rates: rates, now: time.Now}
}

// Render produces the requested document for an order. The order must
// already be scoped to the viewer: a commission statement expects only the
// supplier's attributed items. If any layout step fails, no document is
// returned — partial artifacts are never produced.
func (r *Renderer) Render(kind Kind, o order.Order, v order.Viewer) (*Document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	switch kind {
	case KindInvoice:
		r.invoice(pdf, o)
	case KindCommissionStatement:
		r.statement(pdf, o, v)
	default:
		return nil, errors.Errorf("unknown document kind %q", kind)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render document")
	}

	return &Document{
		Bytes:    buf.Bytes(),
		Filename: r.filename(kind, o.ID),
	}, nil
}

// filename derives a deterministic artifact name from the kind, a slice of
// the order id, and the current date.
func (r *Renderer) filename(kind Kind, orderID string) string {
	id := orderID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s-%s.pdf", kind, id, r.now().Format("2006-01-02"))
}

func (r *Renderer) invoice(pdf *gofpdf.Fpdf, o order.Order) {
	s := order.Summarize(o.Items, r.rates.Tax)

	r.header(pdf, "TAX INVOICE")
	r.metadata(pdf, o, metaParty{
		title: "Billed To",
		lines: []string{o.CustomerEmail, o.DeliveryAddress},
	})

	cols := []tableCol{
		{"Product", 70, "L"},
		{"Qty", 20, "R"},
		{"Unit", 25, "L"},
		{"Rate", 30, "R"},
		{"Amount", 35, "R"},
	}
	r.tableHeader(pdf, cols)
	for _, it := range o.Items {
		amount := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		r.tableRow(pdf, cols, []string{
			it.ProductName,
			fmt.Sprintf("%d", it.Quantity),
			it.Unit,
			money(it.UnitPrice),
			money(amount),
		})
	}

	taxLabel := fmt.Sprintf("Tax (%s%%)", r.rates.Tax.Mul(decimal.NewFromInt(100)))
	r.summaryBox(pdf, []summaryLine{
		{"Subtotal", money(s.Subtotal)},
		{taxLabel, money(s.Tax)},
		{"Total", money(s.Total)},
	})
	r.footer(pdf, "Thank you for buying through Baazar Dost.")
}

func (r *Renderer) statement(pdf *gofpdf.Fpdf, o order.Order, v order.Viewer) {
	split := order.Commission(o.Items, r.rates.Commission)

	r.header(pdf, "COMMISSION STATEMENT")
	r.metadata(pdf, o, metaParty{
		title: "Supplier",
		lines: []string{v.BusinessName, v.Email, v.Phone},
	})

	cols := []tableCol{
		{"Product", 50, "L"},
		{"Qty", 15, "R"},
		{"Rate", 25, "R"},
		{"Total", 30, "R"},
		{"Commission", 30, "R"},
		{"Your Earning", 30, "R"},
	}
	r.tableHeader(pdf, cols)
	for _, it := range o.Items {
		total := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		commission := total.Mul(r.rates.Commission)
		r.tableRow(pdf, cols, []string{
			it.ProductName,
			fmt.Sprintf("%d", it.Quantity),
			money(it.UnitPrice),
			money(total),
			money(commission),
			money(total.Sub(commission)),
		})
	}

	commissionLabel := fmt.Sprintf("Commission (%s%%)", r.rates.Commission.Mul(decimal.NewFromInt(100)))
	r.summaryBox(pdf, []summaryLine{
		{"Total Sales", money(split.TotalSales)},
		{commissionLabel, money(split.Commission)},
		{"Your Earning", money(split.SupplierEarning)},
	})
	r.footer(pdf, "Earnings are settled to your registered account within 3 working days.")
}

func (r *Renderer) header(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(contentW/2, 10, issuerName, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW/2, 10, title, "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(contentW, 5, issuerLine1, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, issuerLine2, "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pageMargin, pdf.GetY(), pageMargin+contentW, pdf.GetY())
	pdf.Ln(4)
}

// metaParty is the counterparty block on the right-hand metadata column.
type metaParty struct {
	title string
	lines []string
}

func (r *Renderer) metadata(pdf *gofpdf.Fpdf, o order.Order, party metaParty) {
	left := []string{
		fmt.Sprintf("Order: %s", o.ID),
		fmt.Sprintf("Date: %s", o.CreatedAt.Format("02 Jan 2006")),
		fmt.Sprintf("Status: %s", o.Status),
	}
	if o.PaymentMethod != "" {
		left = append(left, fmt.Sprintf("Payment: %s", o.PaymentMethod))
	}

	right := []string{party.title + ":"}
	for _, l := range party.lines {
		if l != "" {
			right = append(right, l)
		}
	}

	top := pdf.GetY()
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(30, 30, 30)
	for _, l := range left {
		pdf.CellFormat(contentW/2, 5.5, l, "", 1, "L", false, 0, "")
	}
	bottom := pdf.GetY()

	pdf.SetY(top)
	pdf.SetX(pageMargin + contentW/2)
	for i, l := range right {
		if i == 0 {
			pdf.SetFont("Helvetica", "B", 10)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(contentW/2, 5.5, l, "", 2, "L", false, 0, "")
	}
	if y := pdf.GetY(); y > bottom {
		bottom = y
	}
	pdf.SetY(bottom)
	pdf.Ln(6)
}

type tableCol struct {
	label string
	width float64
	align string
}

func (r *Renderer) tableHeader(pdf *gofpdf.Fpdf, cols []tableCol) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(30, 30, 30)
	for _, c := range cols {
		pdf.CellFormat(c.width, rowH, c.label, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
}

func (r *Renderer) tableRow(pdf *gofpdf.Fpdf, cols []tableCol, cells []string) {
	pdf.SetFont("Helvetica", "", 10)
	for i, c := range cols {
		pdf.CellFormat(c.width, rowH, cells[i], "1", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)
}

type summaryLine struct {
	label string
	value string
}

func (r *Renderer) summaryBox(pdf *gofpdf.Fpdf, lines []summaryLine) {
	const boxW = 85.0
	pdf.Ln(4)
	for i, l := range lines {
		if i == len(lines)-1 {
			pdf.SetFont("Helvetica", "B", 11)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.SetX(pageMargin + contentW - boxW)
		pdf.CellFormat(boxW-30, rowH, l.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, rowH, l.value, "1", 1, "R", false, 0, "")
	}
}

func (r *Renderer) footer(pdf *gofpdf.Fpdf, note string) {
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(contentW, 5, note, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, "This is a computer generated document.", "", 1, "C", false, 0, "")
}

// money formats a currency value with exactly two decimal places and no
// thousands separators.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
