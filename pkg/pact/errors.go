package pact

import (
	"errors"
	"fmt"
)

// Error codes carried in {code, message} bodies.
const (
	CodeBadRequest             = "BadRequest"
	CodeAccessDenied           = "AccessDenied"
	CodeTokenExpired           = "TokenExpired"
	CodeNotFound               = "NotFound"
	CodeNoSuchFootprint        = "NoSuchFootprint"
	CodeInternalError          = "InternalError"
	CodeNotImplemented         = "NotImplemented"
	CodeTooManyRequests        = "TooManyRequests"
	CodeMethodNotAllowed       = "MethodNotAllowed"
	CodeTokenAcquisitionFailed = "TokenAcquisitionFailed"
	CodeForwardingFailed       = "ForwardingFailed"
)

// Exchange failure taxonomy.
var (
	ErrInvalidEvent     = errors.New("invalid event")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrTokenAcquisition = errors.New("token acquisition failed")
	ErrForwarding       = errors.New("forwarding failed")
	ErrNotFound         = errors.New("not found")
)

// TokenError describes a failed exchange with a counterparty token endpoint.
// Status is zero when no HTTP response was received.
type TokenError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TokenError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token acquisition from %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("token acquisition from %s: %v", e.Endpoint, e.Err)
}

func (e *TokenError) Unwrap() []error {
	return unwrapWith(ErrTokenAcquisition, e.Err)
}

// ForwardingError describes a failed event POST to a counterparty.
// Status is zero when no HTTP response was received.
type ForwardingError struct {
	Destination string
	Status      int
	Err         error
}

func (e *ForwardingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("forward event to %s: status %d", e.Destination, e.Status)
	}
	return fmt.Sprintf("forward event to %s: %v", e.Destination, e.Err)
}

func (e *ForwardingError) Unwrap() []error {
	return unwrapWith(ErrForwarding, e.Err)
}

func unwrapWith(kind, cause error) []error {
	if cause == nil {
		return []error{kind}
	}
	return []error{kind, cause}
}
