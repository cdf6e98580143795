package service

import (
	"errors"
	"fmt"
)

// CartErrorKind classifies a rejected cart mutation.
type CartErrorKind string

const (
	CartInvalidProduct  CartErrorKind = "InvalidProduct"
	CartInvalidPrice    CartErrorKind = "InvalidPrice"
	CartInvalidQuantity CartErrorKind = "InvalidQuantity"
	CartNotFound        CartErrorKind = "NotFound"
)

// CartError is returned by CartStore mutations that were rejected before any
// state change.
type CartError struct {
	Kind    CartErrorKind
	Message string
}

func (e *CartError) Error() string {
	if e.Message == "" {
		return "cart: " + string(e.Kind)
	}
	return fmt.Sprintf("cart: %s: %s", e.Kind, e.Message)
}

// Is matches any CartError of the same kind, so callers can use the sentinels below.
func (e *CartError) Is(target error) bool {
	t, ok := target.(*CartError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidProduct  = &CartError{Kind: CartInvalidProduct}
	ErrInvalidPrice    = &CartError{Kind: CartInvalidPrice}
	ErrInvalidQuantity = &CartError{Kind: CartInvalidQuantity}
	ErrNotFound        = &CartError{Kind: CartNotFound}
)

// InvoiceErrorKind classifies a failed invoice build or submission.
type InvoiceErrorKind string

const (
	InvoiceEmptyCart          InvoiceErrorKind = "EmptyCart"
	InvoiceInvalidClient      InvoiceErrorKind = "InvalidClient"
	InvoiceServiceUnavailable InvoiceErrorKind = "ServiceUnavailable"
	InvoiceValidationRejected InvoiceErrorKind = "ValidationRejected"
	InvoiceUnauthorized       InvoiceErrorKind = "Unauthorized"
	InvoiceTimeout            InvoiceErrorKind = "Timeout"
	InvoiceUnknown            InvoiceErrorKind = "Unknown"
	// InvoiceSubmitInFlight rejects a submission while another one for the
	// same terminal has not resolved yet.
	InvoiceSubmitInFlight InvoiceErrorKind = "SubmitInFlight"
)

// InvoiceError is surfaced verbatim to the operator. StatusCode is the
// backend HTTP status when one was received.
type InvoiceError struct {
	Kind       InvoiceErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *InvoiceError) Error() string {
	if e.Message == "" {
		return "invoice: " + string(e.Kind)
	}
	return fmt.Sprintf("invoice: %s: %s", e.Kind, e.Message)
}

func (e *InvoiceError) Unwrap() error { return e.Err }

func (e *InvoiceError) Is(target error) bool {
	t, ok := target.(*InvoiceError)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmptyCart      = &InvoiceError{Kind: InvoiceEmptyCart}
	ErrInvalidClient  = &InvoiceError{Kind: InvoiceInvalidClient}
	ErrSubmitInFlight = &InvoiceError{Kind: InvoiceSubmitInFlight}
)

// InvoiceKind extracts the kind of an InvoiceError, or InvoiceUnknown.
func InvoiceKind(err error) InvoiceErrorKind {
	var ie *InvoiceError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return InvoiceUnknown
}
