package order

import "github.com/shopspring/decimal"

// Summarize folds line items into a Summary using the given tax rate.
// No rounding happens here; two-decimal formatting is applied only when a
// value is rendered. An empty item set yields an all-zero summary.
func Summarize(items []LineItem, taxRate decimal.Decimal) Summary {
	subtotal := decimal.Zero
	count := 0
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.UnitPrice.Mul(qty))
		count += it.Quantity
	}

	tax := subtotal.Mul(taxRate)
	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal.Add(tax),
		ItemCount: count,
	}
}

// Commission computes the supplier split over an item set that has already
// been scoped to the supplier's attributed lines.
func Commission(items []LineItem, commissionRate decimal.Decimal) CommissionSplit {
	sales := decimal.Zero
	for _, it := range items {
		sales = sales.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	commission := sales.Mul(commissionRate)
	return CommissionSplit{
		TotalSales:      sales,
		Commission:      commission,
		SupplierEarning: sales.Sub(commission),
	}
}

// EffectiveTaxPercent recomputes the tax percentage implied by a stored
// summary, for display next to legacy records. A zero subtotal reports 0%
// instead of dividing by zero.
func EffectiveTaxPercent(s Summary) decimal.Decimal {
	if s.Subtotal.IsZero() {
		return decimal.Zero
	}
	return s.Tax.Div(s.Subtotal).Mul(decimal.NewFromInt(100))
}
