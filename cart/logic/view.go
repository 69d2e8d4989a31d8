package logic

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PageState is Empty or Populated, purely a function of the item count.
type PageState int

const (
	Empty PageState = iota
	Populated
)

func (s PageState) String() string {
	if s == Populated {
		return "populated"
	}
	return "empty"
}

// LineView holds the display values for one row.
type LineView struct {
	ID           string
	SKU          string
	DisplayName  string
	ImageURL     string
	HasImage     bool
	UnitPrice    decimal.Decimal
	Quantity     int32
	LineTotal    decimal.Decimal
	Confirmed    bool
	CanDecrement bool
}

// PageView is everything the page layer needs to render the cart.
type PageView struct {
	State  PageState
	Busy   bool
	Lines  []LineView
	Totals Totals
}

// MutationsEnabled reports whether mutation controls should be active.
func (v PageView) MutationsEnabled() bool {
	return !v.Busy
}

func BuildView(items []LineItem, totals Totals, busy bool) PageView {
	view := PageView{State: Empty, Busy: busy, Totals: totals}
	if len(items) == 0 {
		return view
	}

	view.State = Populated
	view.Lines = make([]LineView, 0, len(items))
	for _, item := range items {
		view.Lines = append(view.Lines, LineView{
			ID:           item.ID,
			SKU:          item.SKU,
			DisplayName:  item.DisplayName(),
			ImageURL:     item.ImageURL,
			HasImage:     item.HasImage(),
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.DisplayTotal(),
			Confirmed:    item.LineTotal.Valid,
			CanDecrement: item.CanDecrement() && !busy,
		})
	}
	return view
}

// FormatSummary renders the page as a fixed-width text block.
func FormatSummary(view PageView) string {
	var lines []string

	lines = append(lines, strings.Repeat("═", 40))
	lines = append(lines, "           YOUR CART")
	lines = append(lines, strings.Repeat("═", 40))

	if view.State == Empty {
		lines = append(lines, "Your cart is empty.")
		lines = append(lines, strings.Repeat("═", 40))
		return strings.Join(lines, "\n")
	}

	for _, line := range view.Lines {
		lines = append(lines, fmt.Sprintf("%d x %s @ $%s = $%s",
			line.Quantity, line.DisplayName,
			FormatMoney(line.UnitPrice), FormatMoney(line.LineTotal)))
	}

	lines = append(lines, strings.Repeat("─", 40))
	lines = append(lines, fmt.Sprintf("Subtotal: $%s", FormatMoney(view.Totals.Subtotal)))
	lines = append(lines, fmt.Sprintf("Tax:      $%s", FormatMoney(view.Totals.Tax)))
	lines = append(lines, fmt.Sprintf("Total:    $%s", FormatMoney(view.Totals.Total)))
	lines = append(lines, strings.Repeat("═", 40))

	return strings.Join(lines, "\n")
}
