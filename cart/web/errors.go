package web

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"storefront/cart/logic"
	"storefront/cart/remote"
)

const msgUpdateFailed = "We could not update your cart. Please try again."

// httpStatus maps a controller or transport failure to a response code.
func httpStatus(err error) int {
	var cmdErr *logic.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case logic.StatusInvalidArgument:
			return http.StatusBadRequest
		case logic.StatusFailedPrecondition:
			return http.StatusConflict
		}
	}
	if clientErr := remote.AsClientError(err); clientErr != nil {
		if clientErr.Kind == remote.ErrInvalidArgument {
			return http.StatusBadRequest
		}
		return grpcErrorStatusFromCode(clientErr.Code())
	}
	return http.StatusBadGateway
}

func grpcErrorStatusFromCode(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition, codes.Aborted, codes.AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// userMessage picks the text shown above the cart.
func userMessage(err error) string {
	var cmdErr *logic.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Message
	}
	if clientErr := remote.AsClientError(err); clientErr != nil {
		if clientErr.IsConnectionError() || clientErr.Kind == remote.ErrMalformedResponse {
			return msgUpdateFailed
		}
		if msg := clientErr.UserMessage(); msg != "" {
			return msg
		}
	}
	return msgUpdateFailed
}
