package logic

import "github.com/shopspring/decimal"

// LineItem is one row of the cart: a quantity of a SKU at a unit price.
type LineItem struct {
	ID        string
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
	// LineTotal is the server-confirmed amount for the row. When valid it wins
	// over UnitPrice*Quantity for display of that row.
	LineTotal decimal.NullDecimal
	ImageURL  string
}

// Cart is the server-confirmed aggregate. A valid Subtotal overrides the
// locally computed one, zero included.
type Cart struct {
	ID       string
	Subtotal decimal.NullDecimal
}

// DisplayName returns Name, or SKU when no name was supplied.
func (i LineItem) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.SKU
}

// NominalTotal is UnitPrice*Quantity, ignoring any server override.
func (i LineItem) NominalTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

// DisplayTotal is the confirmed line total when present, else the nominal one.
func (i LineItem) DisplayTotal() decimal.Decimal {
	if i.LineTotal.Valid {
		return i.LineTotal.Decimal
	}
	return i.NominalTotal()
}

func (i LineItem) HasImage() bool {
	return i.ImageURL != ""
}

// CanDecrement reports whether a decrement would change the item.
func (i LineItem) CanDecrement() bool {
	return i.Quantity > 1
}

// FindItem returns the item with the given id.
func FindItem(items []LineItem, id string) (LineItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}
