package logic

import "github.com/shopspring/decimal"

// TaxRate is applied to every subtotal. It is not configurable per item or region.
var TaxRate = decimal.RequireFromString("0.08")

// Totals is the pricing breakdown shown under the cart.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute prices a cart. The server subtotal wins when present; otherwise the
// nominal line amounts are summed. Confirmed line totals never feed the
// subtotal, they only change how a single row is displayed.
func Compute(cart *Cart, items []LineItem) Totals {
	var server decimal.NullDecimal
	if cart != nil {
		server = cart.Subtotal
	}
	return ComputeTotals(server, Subtotal(items))
}

// ComputeTotals derives tax and total from a subtotal. The tax is rounded
// first and the total is rounded again after adding the rounded tax.
func ComputeTotals(server decimal.NullDecimal, local decimal.Decimal) Totals {
	subtotal := local
	if server.Valid {
		subtotal = server.Decimal
	}
	tax := round2(subtotal.Mul(TaxRate))
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    round2(subtotal.Add(tax)),
	}
}

// Subtotal sums UnitPrice*Quantity over items.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.NominalTotal())
	}
	return sum
}

// round2 rounds half-up to cents. Amounts are never negative, so the
// half-away-from-zero rule of Decimal.Round is the same thing.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
