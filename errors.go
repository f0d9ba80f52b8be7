package elephantio

import "github.com/tihiydo/elephant.io/internal/apierror"

// Error is the client's single error type (spec §6's "Error surface" and
// §7's taxonomy), wrapping an optional underlying cause for errors.As.
// Grounded on clients/engine/error.go of zishang520/socket.io.
type Error = apierror.Error

// Kind classifies an Error for programmatic dispatch.
type Kind = apierror.Kind

const (
	KindSocketError             = apierror.KindSocketError
	KindServerConnectionFailure = apierror.KindServerConnectionFailure
	KindUnsupportedTransport    = apierror.KindUnsupportedTransport
	KindPayloadTooLarge         = apierror.KindPayloadTooLarge
	KindInvalidArgument         = apierror.KindInvalidArgument
)

func NewSocketError(message string, cause error) *Error {
	return apierror.NewSocketError(message, cause)
}

func NewServerConnectionFailure(message string, cause error) *Error {
	return apierror.NewServerConnectionFailure(message, cause)
}

func NewUnsupportedTransportError(message string) *Error {
	return apierror.NewUnsupportedTransportError(message)
}

func NewPayloadTooLargeError(message string) *Error {
	return apierror.NewPayloadTooLargeError(message)
}

func NewInvalidArgumentError(message string) *Error {
	return apierror.NewInvalidArgumentError(message)
}
