package logic

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService is the cart-management collaborator behind the page. It owns the
// snapshot; the page reads it and sends commands.
type CartService interface {
	Cart() *Cart
	Items() []LineItem
	LocalTotal() decimal.Decimal
	Update(ctx context.Context, id string, quantity int32, unitPrice decimal.Decimal) error
	Remove(ctx context.Context, id string) error
	ClearLocal()
}

type CartPage interface {
	// Increment raises the quantity of an item by one.
	Increment(ctx context.Context, id string) error

	// Decrement lowers the quantity by one. At quantity 1 it does nothing.
	Decrement(ctx context.Context, id string) error

	// Remove deletes one item.
	Remove(ctx context.Context, id string) error

	// ClearAll empties the cart, absorbing remote failures.
	ClearAll(ctx context.Context) error

	// View derives the page from the current snapshot.
	View() PageView

	// Summary renders the page as plain text.
	Summary() string
}

type DefaultCartPage struct {
	svc        CartService
	serializer *Serializer
	clearer    *BulkClearer
	logger     *zap.Logger
}

func NewCartPage(svc CartService, serializer *Serializer, logger *zap.Logger) CartPage {
	if serializer == nil {
		serializer = NewSerializer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultCartPage{
		svc:        svc,
		serializer: serializer,
		clearer:    NewBulkClearer(svc, serializer, logger),
		logger:     logger,
	}
}

func (p *DefaultCartPage) Increment(ctx context.Context, id string) error {
	if _, err := p.lookup(id); err != nil {
		return err
	}

	return p.serializer.Run(ctx, func(ctx context.Context) error {
		// Re-read under the serializer so the quantity reflects any mutation
		// that finished while this one waited.
		item, err := p.lookup(id)
		if err != nil {
			return err
		}
		p.logger.Info("incrementing item", zap.String("item_id", id), zap.Int32("new_quantity", item.Quantity+1))
		return p.svc.Update(ctx, item.ID, item.Quantity+1, item.UnitPrice)
	})
}

func (p *DefaultCartPage) Decrement(ctx context.Context, id string) error {
	item, err := p.lookup(id)
	if err != nil {
		return err
	}
	if !item.CanDecrement() {
		return nil
	}

	return p.serializer.Run(ctx, func(ctx context.Context) error {
		item, err := p.lookup(id)
		if err != nil {
			return err
		}
		if !item.CanDecrement() {
			return nil
		}
		p.logger.Info("decrementing item", zap.String("item_id", id), zap.Int32("new_quantity", item.Quantity-1))
		return p.svc.Update(ctx, item.ID, item.Quantity-1, item.UnitPrice)
	})
}

func (p *DefaultCartPage) Remove(ctx context.Context, id string) error {
	if id == "" {
		return NewInvalidArgument(ErrMsgItemIDRequired)
	}

	p.logger.Info("removing item", zap.String("item_id", id))
	return p.serializer.Run(ctx, func(ctx context.Context) error {
		return p.svc.Remove(ctx, id)
	})
}

func (p *DefaultCartPage) ClearAll(ctx context.Context) error {
	items := p.svc.Items()
	if len(items) == 0 {
		return nil
	}

	p.logger.Info("clearing cart", zap.Int("items", len(items)))
	// Partial remote failures are dropped on purpose: the user sees an empty
	// cart now and the next refresh reconciles whatever survived remotely.
	_, err := p.clearer.Clear(ctx, items)
	return err
}

func (p *DefaultCartPage) View() PageView {
	cart := p.svc.Cart()
	items := p.svc.Items()

	var server decimal.NullDecimal
	if cart != nil {
		server = cart.Subtotal
	}
	return BuildView(items, ComputeTotals(server, p.svc.LocalTotal()), p.serializer.Busy())
}

func (p *DefaultCartPage) Summary() string {
	return FormatSummary(p.View())
}

func (p *DefaultCartPage) lookup(id string) (LineItem, error) {
	if id == "" {
		return LineItem{}, NewInvalidArgument(ErrMsgItemIDRequired)
	}
	item, ok := FindItem(p.svc.Items(), id)
	if !ok {
		return LineItem{}, NewFailedPrecondition(ErrMsgItemNotInCart)
	}
	return item, nil
}
