package remote

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ClientError represents errors from remote cart calls.
type ClientError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// ErrorKind categorizes client errors.
type ErrorKind int

const (
	// ErrConnection indicates a connection failure.
	ErrConnection ErrorKind = iota
	// ErrGRPC indicates a gRPC error returned by the cart service.
	ErrGRPC
	// ErrInvalidArgument indicates an invalid argument from the caller.
	ErrInvalidArgument
	// ErrMalformedResponse indicates a response the client could not decode.
	ErrMalformedResponse
)

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Code returns the gRPC status code if this is a gRPC error.
func (e *ClientError) Code() codes.Code {
	if e.Kind != ErrGRPC || e.Cause == nil {
		return codes.Unknown
	}
	if s, ok := status.FromError(e.Cause); ok {
		return s.Code()
	}
	return codes.Unknown
}

// UserMessage is the server-supplied message for gRPC errors, the plain
// message otherwise.
func (e *ClientError) UserMessage() string {
	if e.Kind == ErrGRPC && e.Cause != nil {
		if s, ok := status.FromError(e.Cause); ok && s.Message() != "" {
			return s.Message()
		}
	}
	return e.Message
}

func (e *ClientError) IsNotFound() bool {
	return e.Code() == codes.NotFound
}

func (e *ClientError) IsPreconditionFailed() bool {
	return e.Code() == codes.FailedPrecondition
}

func (e *ClientError) IsInvalidArgument() bool {
	return e.Kind == ErrInvalidArgument || e.Code() == codes.InvalidArgument
}

func (e *ClientError) IsConnectionError() bool {
	return e.Kind == ErrConnection || e.Code() == codes.Unavailable
}

// Error constructors

func ConnectionError(err error) *ClientError {
	return &ClientError{Kind: ErrConnection, Message: "cart service unreachable", Cause: err}
}

func GRPCError(err error) *ClientError {
	return &ClientError{Kind: ErrGRPC, Message: "cart service error", Cause: err}
}

func InvalidArgumentError(msg string) *ClientError {
	return &ClientError{Kind: ErrInvalidArgument, Message: msg}
}

func MalformedResponseError(msg string) *ClientError {
	return &ClientError{Kind: ErrMalformedResponse, Message: msg}
}

// AsClientError extracts a ClientError from an error chain.
func AsClientError(err error) *ClientError {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr
	}
	return nil
}
