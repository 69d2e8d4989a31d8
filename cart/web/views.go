package web

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"storefront/cart/logic"
)

const placeholderImage = "/static/placeholder.svg"

// pageWriter stops writing after the first error.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *pageWriter) rawf(format string, args ...interface{}) {
	p.raw(fmt.Sprintf(format, args...))
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) render(ctx context.Context, c templ.Component) {
	if p.err != nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

// CartPage is the full document for GET /cart.
func CartPage(view logic.PageView, flash string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Your cart</title></head><body>`)
		p.rawf(`<main id="cart" data-state="%s">`, view.State)
		p.raw(`<h1>Your cart</h1>`)
		if flash != "" {
			p.render(ctx, ErrorBanner(flash))
		}
		if view.State == logic.Empty {
			p.render(ctx, EmptyCart())
		} else {
			p.render(ctx, LineList(view))
			p.render(ctx, TotalsPanel(view.Totals))
		}
		p.raw(`</main></body></html>`)
		return p.err
	})
}

func ErrorBanner(message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<div class="alert alert-error" role="alert">`)
		p.text(message)
		p.raw(`</div>`)
		return p.err
	})
}

func EmptyCart() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<section class="cart-empty"><p>Your cart is empty.</p><a href="/">Continue shopping</a></section>`)
		return p.err
	})
}

// LineList renders every row plus the clear-all form. All controls are
// disabled while a mutation is in flight.
func LineList(view logic.PageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<ul class="cart-lines">`)
		for _, line := range view.Lines {
			p.render(ctx, Line(line, view.MutationsEnabled()))
		}
		p.raw(`</ul>`)
		p.rawf(`<form method="post" action="/cart/clear"><button type="submit"%s>Clear cart</button></form>`,
			disabledAttr(!view.MutationsEnabled()))
		return p.err
	})
}

func Line(line logic.LineView, enabled bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		id := url.PathEscape(line.ID)

		p.raw(`<li class="cart-line" data-item-id="`)
		p.text(line.ID)
		p.raw(`">`)

		src := placeholderImage
		if line.HasImage {
			src = line.ImageURL
		}
		p.raw(`<img src="`)
		p.text(src)
		p.raw(`" alt="`)
		p.text(line.DisplayName)
		p.raw(`">`)

		p.raw(`<span class="name">`)
		p.text(line.DisplayName)
		p.raw(`</span>`)
		p.rawf(`<span class="unit-price">$%s</span>`, logic.FormatMoney(line.UnitPrice))
		p.rawf(`<span class="quantity">%d</span>`, line.Quantity)
		p.rawf(`<span class="line-total" data-confirmed="%t">$%s</span>`, line.Confirmed, logic.FormatMoney(line.LineTotal))

		p.rawf(`<form method="post" action="/cart/items/%s/decrement"><button type="submit" aria-label="Decrease quantity"%s>-</button></form>`,
			id, disabledAttr(!line.CanDecrement))
		p.rawf(`<form method="post" action="/cart/items/%s/increment"><button type="submit" aria-label="Increase quantity"%s>+</button></form>`,
			id, disabledAttr(!enabled))
		p.rawf(`<form method="post" action="/cart/items/%s/remove"><button type="submit"%s>Remove</button></form>`,
			id, disabledAttr(!enabled))

		p.raw(`</li>`)
		return p.err
	})
}

func TotalsPanel(totals logic.Totals) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<dl class="cart-totals">`)
		p.rawf(`<dt>Subtotal</dt><dd id="subtotal">$%s</dd>`, logic.FormatMoney(totals.Subtotal))
		p.rawf(`<dt>Tax</dt><dd id="tax">$%s</dd>`, logic.FormatMoney(totals.Tax))
		p.rawf(`<dt>Total</dt><dd id="total">$%s</dd>`, logic.FormatMoney(totals.Total))
		p.raw(`</dl>`)
		return p.err
	})
}

func disabledAttr(disabled bool) string {
	if disabled {
		return " disabled"
	}
	return ""
}
