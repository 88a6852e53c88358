package common

import "errors"

var (
	// ErrUnauthorized is returned when the method is called by an account
	// which is not allowed to call it. The invocation is aborted.
	ErrUnauthorized = errors.New("authorization violation")
	// ErrPrecondition is returned when the contract state or call arguments
	// do not satisfy requirements of the method. The invocation is aborted.
	ErrPrecondition = errors.New("precondition violation")
	// ErrNotReady is returned when a callback is executed while the result
	// of the awaited call is not available.
	ErrNotReady = errors.New("promise result is not ready")
	// ErrDeliveryFailed is returned when an awaited asynchronous call has
	// failed.
	ErrDeliveryFailed = errors.New("asynchronous call failed")
)
