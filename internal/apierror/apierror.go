// Package apierror defines the client's error taxonomy (spec §7), shared
// between the engine package and the root façade so that engine-level
// failures surface to callers as one of the five Kind values below.
// Grounded on clients/engine/error.go of zishang520/socket.io.
package apierror

import "fmt"

// Kind classifies an Error per spec §6's "Error surface" and §7's taxonomy.
type Kind string

const (
	KindSocketError            Kind = "SocketError"
	KindServerConnectionFailure Kind = "ServerConnectionFailure"
	KindUnsupportedTransport    Kind = "UnsupportedTransport"
	KindPayloadTooLarge         Kind = "PayloadTooLarge"
	KindInvalidArgument         Kind = "InvalidArgument"
)

// Error is the client's single error type. It carries a Kind for
// programmatic dispatch and wraps an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	errs    []error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() []error { return e.errs }

func New(kind Kind, message string, cause error) *Error {
	e := &Error{Kind: kind, Message: message}
	if cause != nil {
		e.errs = []error{cause}
	}
	return e
}

func NewSocketError(message string, cause error) *Error {
	return New(KindSocketError, message, cause)
}

func NewServerConnectionFailure(message string, cause error) *Error {
	return New(KindServerConnectionFailure, message, cause)
}

func NewUnsupportedTransportError(message string) *Error {
	return New(KindUnsupportedTransport, message, nil)
}

func NewPayloadTooLargeError(message string) *Error {
	return New(KindPayloadTooLarge, message, nil)
}

func NewInvalidArgumentError(message string) *Error {
	return New(KindInvalidArgument, message, nil)
}
