// Package remotetest runs an in-memory cart service over bufconn for tests.
package remotetest

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"storefront/cart/logic"
	"storefront/cart/remote"
)

const bufSize = 1024 * 1024

// Cart is an in-memory CartServiceServer. Failures can be injected per item.
type Cart struct {
	mu             sync.Mutex
	cartID         string
	subtotal       decimal.NullDecimal
	items          []logic.LineItem
	updateErrs     map[string]error
	removeErrs     map[string]error
	getErr         error
	gets           int
	updates        []remote.UpdateItemRequest
	removes        []remote.RemoveItemRequest
	correlationIDs []string
}

func NewCart(cartID string, items ...logic.LineItem) *Cart {
	return &Cart{
		cartID:     cartID,
		items:      append([]logic.LineItem(nil), items...),
		updateErrs: make(map[string]error),
		removeErrs: make(map[string]error),
	}
}

// SetServerSubtotal makes GetCart report a confirmed subtotal.
func (c *Cart) SetServerSubtotal(subtotal decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subtotal = decimal.NewNullDecimal(subtotal)
}

func (c *Cart) FailUpdate(itemID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateErrs[itemID] = err
}

func (c *Cart) FailRemove(itemID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeErrs[itemID] = err
}

func (c *Cart) FailGet(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getErr = err
}

func (c *Cart) Items() []logic.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]logic.LineItem(nil), c.items...)
}

func (c *Cart) Updates() []remote.UpdateItemRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]remote.UpdateItemRequest(nil), c.updates...)
}

func (c *Cart) Removes() []remote.RemoveItemRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]remote.RemoveItemRequest(nil), c.removes...)
}

// GetCalls counts GetCart requests, failed ones included.
func (c *Cart) GetCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets
}

func (c *Cart) CorrelationIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.correlationIDs...)
}

func (c *Cart) GetCart(ctx context.Context, req remote.CartRequest) (remote.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordCorrelation(ctx)
	c.gets++

	if err := c.checkCart(req.CartID); err != nil {
		return remote.Snapshot{}, err
	}
	if c.getErr != nil {
		return remote.Snapshot{}, c.getErr
	}
	return remote.Snapshot{
		Cart:  logic.Cart{ID: c.cartID, Subtotal: c.subtotal},
		Items: append([]logic.LineItem(nil), c.items...),
	}, nil
}

func (c *Cart) UpdateItem(ctx context.Context, req remote.UpdateItemRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordCorrelation(ctx)
	c.updates = append(c.updates, req)

	if err := c.checkCart(req.CartID); err != nil {
		return err
	}
	if err := c.updateErrs[req.ItemID]; err != nil {
		return err
	}
	for i := range c.items {
		if c.items[i].ID == req.ItemID {
			c.items[i].Quantity = req.Quantity
			c.items[i].UnitPrice = req.UnitPrice
			c.items[i].LineTotal.Valid = false
			return nil
		}
	}
	return status.Errorf(codes.NotFound, "item %s not in cart", req.ItemID)
}

func (c *Cart) RemoveItem(ctx context.Context, req remote.RemoveItemRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordCorrelation(ctx)
	c.removes = append(c.removes, req)

	if err := c.checkCart(req.CartID); err != nil {
		return err
	}
	if err := c.removeErrs[req.ItemID]; err != nil {
		return err
	}
	for i := range c.items {
		if c.items[i].ID == req.ItemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return status.Errorf(codes.NotFound, "item %s not in cart", req.ItemID)
}

func (c *Cart) checkCart(cartID string) error {
	if cartID != c.cartID {
		return status.Errorf(codes.NotFound, "cart %s not found", cartID)
	}
	return nil
}

func (c *Cart) recordCorrelation(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		c.correlationIDs = append(c.correlationIDs, md.Get(remote.CorrelationHeader)...)
	}
}

// Serve starts srv on an in-memory listener and returns a connection to it.
// Both are torn down when the test ends.
func Serve(t testing.TB, srv remote.CartServiceServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	remote.RegisterCartServiceServer(s, srv)
	go func() {
		_ = s.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		s.Stop()
		t.Fatalf("failed to dial bufconn: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
	})
	return conn
}
