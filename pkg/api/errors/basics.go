package errors

import (
	"fmt"
	"net/http"
)

type ErrorID int

const (
	UnknownErrorID ErrorID = iota
	WrongJSONErrorID
	InvalidParameterErrorID
	TooBigArrayAllocationErrorID
	RateLimitedErrorID
)

// ledger errors
const (
	AlreadyRegisteredErrorID ErrorID = iota + 100
	NotRegisteredErrorID
	InsufficientBalanceErrorID
	SlotOccupiedErrorID
	PayoutSumMismatchErrorID
	UnauthorizedErrorID
	AncestorNotFoundErrorID
	AlreadySubscribedErrorID
	NotSubscribedErrorID
	PriceMismatchErrorID
	InvalidLevelErrorID
	OverflowErrorID
	InvalidRequestErrorID
)

// ApiError is an error sent to the client as {"error": id, "message": text} with its HTTP code.
type ApiError interface {
	error
	GetID() ErrorID
	GetHttpCode() int
	GetMessage() string
}

type genericError struct {
	ID       ErrorID `json:"error"`
	HttpCode int     `json:"-"`
	Message  string  `json:"message"`
}

func (e *genericError) Error() string {
	return fmt.Sprintf("ApiError #%d: %s", e.ID, e.Message)
}

func (e *genericError) GetID() ErrorID {
	return e.ID
}

func (e *genericError) GetHttpCode() int {
	return e.HttpCode
}

func (e *genericError) GetMessage() string {
	return e.Message
}

type UnknownError struct {
	genericError
	inner error
}

func (u *UnknownError) Unwrap() error {
	return u.inner
}

func NewUnknownError(inner error) *UnknownError {
	return &UnknownError{
		genericError: genericError{
			ID:       UnknownErrorID,
			HttpCode: http.StatusInternalServerError,
			Message:  "Error is unknown",
		},
		inner: inner,
	}
}

type (
	InvalidParameterError      struct{ genericError }
	TooBigArrayAllocationError struct{ genericError }
	RateLimitedError           struct{ genericError }
)

var (
	ErrWrongJSON = &InvalidParameterError{
		genericError: genericError{
			ID:       WrongJSONErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  "Failed to parse json message",
		},
	}
	ErrRateLimited = &RateLimitedError{
		genericError: genericError{
			ID:       RateLimitedErrorID,
			HttpCode: http.StatusTooManyRequests,
			Message:  "Too many requests",
		},
	}
)

func NewInvalidParameterError(name string, inner error) *InvalidParameterError {
	return &InvalidParameterError{
		genericError: genericError{
			ID:       InvalidParameterErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  fmt.Sprintf("Invalid parameter %q: %v", name, inner),
		},
	}
}

func NewTooBigArrayAllocationError(limit int) *TooBigArrayAllocationError {
	return &TooBigArrayAllocationError{
		genericError: genericError{
			ID:       TooBigArrayAllocationErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  fmt.Sprintf("Too big sequence requested: max limit is %d entries", limit),
		},
	}
}
