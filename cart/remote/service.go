package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "storefront.cart.v1.CartService"

const (
	MethodGetCart    = "/" + ServiceName + "/GetCart"
	MethodUpdateItem = "/" + ServiceName + "/UpdateItem"
	MethodRemoveItem = "/" + ServiceName + "/RemoveItem"
)

// CartServiceServer is implemented by the authoritative cart.
type CartServiceServer interface {
	GetCart(ctx context.Context, req CartRequest) (Snapshot, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) error
	RemoveItem(ctx context.Context, req RemoveItemRequest) error
}

// RegisterCartServiceServer registers srv on s.
func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&cartServiceDesc, srv)
}

var cartServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCart", Handler: getCartHandler},
		{MethodName: "UpdateItem", Handler: updateItemHandler},
		{MethodName: "RemoveItem", Handler: removeItemHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func getCartHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, req interface{}) (interface{}, error) {
		snap, err := srv.(CartServiceServer).GetCart(ctx, decodeCartRequest(req.(*structpb.Struct)))
		if err != nil {
			return nil, err
		}
		out, err := encodeSnapshot(snap)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to encode cart: %v", err)
		}
		return out, nil
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetCart}
	return interceptor(ctx, in, info, handle)
}

func updateItemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, req interface{}) (interface{}, error) {
		cmd, err := decodeUpdateItemRequest(req.(*structpb.Struct))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if err := srv.(CartServiceServer).UpdateItem(ctx, cmd); err != nil {
			return nil, err
		}
		return &emptypb.Empty{}, nil
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodUpdateItem}
	return interceptor(ctx, in, info, handle)
}

func removeItemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, req interface{}) (interface{}, error) {
		if err := srv.(CartServiceServer).RemoveItem(ctx, decodeRemoveItemRequest(req.(*structpb.Struct))); err != nil {
			return nil, err
		}
		return &emptypb.Empty{}, nil
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRemoveItem}
	return interceptor(ctx, in, info, handle)
}
