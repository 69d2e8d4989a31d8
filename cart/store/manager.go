// Package store keeps the local copy of the remote cart.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/cart/logic"
	"storefront/cart/remote"
)

// Remote is the subset of the cart service the manager needs.
type Remote interface {
	GetCart(ctx context.Context) (remote.Snapshot, error)
	UpdateItem(ctx context.Context, itemID string, quantity int32, unitPrice decimal.Decimal) error
	RemoveItem(ctx context.Context, itemID string) error
}

// Manager holds the last snapshot fetched from the remote cart and
// re-fetches it after every mutation.
type Manager struct {
	remote Remote
	logger *zap.Logger

	mu    sync.RWMutex
	cart  *logic.Cart
	items []logic.LineItem
}

var (
	_ logic.CartService = (*Manager)(nil)
	_ logic.BulkRemover = (*Manager)(nil)
)

func NewManager(r Remote, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{remote: r, logger: logger}
}

// Refresh replaces the snapshot with the remote state. On error the previous
// snapshot is kept.
func (m *Manager) Refresh(ctx context.Context) error {
	snap, err := m.remote.GetCart(ctx)
	if err != nil {
		m.logger.Warn("cart refresh failed", zap.Error(err))
		return err
	}

	cart := snap.Cart
	m.mu.Lock()
	m.cart = &cart
	m.items = snap.Items
	m.mu.Unlock()

	m.logger.Debug("cart refreshed",
		zap.String("cart_id", cart.ID),
		zap.Int("items", len(snap.Items)),
		zap.Bool("subtotal_confirmed", cart.Subtotal.Valid))
	return nil
}

func (m *Manager) Cart() *logic.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cart == nil {
		return nil
	}
	cart := *m.cart
	return &cart
}

// Items returns a copy of the current line items.
func (m *Manager) Items() []logic.LineItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]logic.LineItem(nil), m.items...)
}

func (m *Manager) LocalTotal() decimal.Decimal {
	return logic.Subtotal(m.Items())
}

func (m *Manager) Update(ctx context.Context, id string, quantity int32, unitPrice decimal.Decimal) error {
	if err := m.remote.UpdateItem(ctx, id, quantity, unitPrice); err != nil {
		return err
	}
	if err := m.Refresh(ctx); err != nil {
		return fmt.Errorf("item %s updated but refresh failed: %w", id, err)
	}
	return nil
}

func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.remote.RemoveItem(ctx, id); err != nil {
		return err
	}
	if err := m.Refresh(ctx); err != nil {
		return fmt.Errorf("item %s removed but refresh failed: %w", id, err)
	}
	return nil
}

// RemoveOnly deletes an item remotely and leaves the snapshot as it is. The
// bulk clear resets the snapshot itself once all removals have settled.
func (m *Manager) RemoveOnly(ctx context.Context, id string) error {
	return m.remote.RemoveItem(ctx, id)
}

// ClearLocal drops the snapshot without contacting the remote.
func (m *Manager) ClearLocal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = nil
	m.items = nil
}
