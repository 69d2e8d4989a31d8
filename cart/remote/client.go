// Package remote is the gRPC transport to the authoritative cart service.
package remote

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// CorrelationHeader carries the per-call correlation id.
const CorrelationHeader = "x-correlation-id"

// DefaultTimeout bounds a single call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// formatEndpoint converts an endpoint to gRPC target format.
// Paths starting with '/' or './' are dialed as unix sockets.
func formatEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "/") || strings.HasPrefix(endpoint, "./") {
		return "unix://" + endpoint
	}
	return endpoint
}

// DefaultDialOptions returns the dial options used by NewClient. Calls carry
// trace context when a TracerProvider is registered.
func DefaultDialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Client talks to one cart on the cart service.
type Client struct {
	conn    grpc.ClientConnInterface
	closer  func() error
	cartID  string
	timeout time.Duration
}

// NewClient connects to the cart service at endpoint.
func NewClient(endpoint, cartID string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	if cartID == "" {
		return nil, InvalidArgumentError("cart id is required")
	}
	conn, err := grpc.NewClient(formatEndpoint(endpoint), append(DefaultDialOptions(), opts...)...)
	if err != nil {
		return nil, ConnectionError(err)
	}
	c := ClientFromConn(conn, cartID, timeout)
	c.closer = conn.Close
	return c, nil
}

// ClientFromConn creates a client from an existing connection. Close does
// not close conn.
func ClientFromConn(conn grpc.ClientConnInterface, cartID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{conn: conn, cartID: cartID, timeout: timeout}
}

func (c *Client) CartID() string {
	return c.cartID
}

// Close releases the connection if the client owns it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// GetCart fetches the authoritative cart.
func (c *Client) GetCart(ctx context.Context) (Snapshot, error) {
	req, err := encodeCartRequest(CartRequest{CartID: c.cartID})
	if err != nil {
		return Snapshot{}, InvalidArgumentError(err.Error())
	}

	resp := new(structpb.Struct)
	if err := c.invoke(ctx, MethodGetCart, req, resp); err != nil {
		return Snapshot{}, err
	}

	snap, err := decodeSnapshot(resp)
	if err != nil {
		return Snapshot{}, MalformedResponseError(err.Error())
	}
	return snap, nil
}

// UpdateItem sets the quantity of an item. The unit price is sent along so
// the service can detect a stale price.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int32, unitPrice decimal.Decimal) error {
	if itemID == "" {
		return InvalidArgumentError("item id is required")
	}
	if quantity < 1 {
		return InvalidArgumentError("quantity must be positive")
	}

	req, err := encodeUpdateItemRequest(UpdateItemRequest{
		CartID:    c.cartID,
		ItemID:    itemID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	if err != nil {
		return InvalidArgumentError(err.Error())
	}
	return c.invoke(ctx, MethodUpdateItem, req, new(emptypb.Empty))
}

// RemoveItem deletes an item from the cart.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	if itemID == "" {
		return InvalidArgumentError("item id is required")
	}

	req, err := encodeRemoveItemRequest(RemoveItemRequest{CartID: c.cartID, ItemID: itemID})
	if err != nil {
		return InvalidArgumentError(err.Error())
	}
	return c.invoke(ctx, MethodRemoveItem, req, new(emptypb.Empty))
}

func (c *Client) invoke(ctx context.Context, method string, req, resp interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if md, ok := metadata.FromOutgoingContext(ctx); !ok || len(md.Get(CorrelationHeader)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, CorrelationHeader, uuid.NewString())
	}

	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return GRPCError(err)
	}
	return nil
}
