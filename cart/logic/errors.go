package logic

type StatusCode int

const (
	StatusInvalidArgument StatusCode = iota
	StatusFailedPrecondition
)

// Error message constants for the cart page.
const (
	ErrMsgItemNotInCart      = "Item not in cart"
	ErrMsgItemIDRequired     = "Item ID is required"
	ErrMsgMutationInProgress = "Another cart update is in progress"
)

func (s StatusCode) String() string {
	switch s {
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusFailedPrecondition:
		return "FAILED_PRECONDITION"
	default:
		return "UNKNOWN"
	}
}

type CommandError struct {
	Code    StatusCode
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// ErrMutationInProgress is returned when a mutation is dispatched while another
// one still holds the serializer.
var ErrMutationInProgress = NewFailedPrecondition(ErrMsgMutationInProgress)

func NewInvalidArgument(message string) *CommandError {
	return &CommandError{Code: StatusInvalidArgument, Message: message}
}

func NewFailedPrecondition(message string) *CommandError {
	return &CommandError{Code: StatusFailedPrecondition, Message: message}
}
