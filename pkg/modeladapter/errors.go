package modeladapter

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure.
type Kind string

const (
	KindConfigMissing       Kind = "config_missing"       // No usable configuration loaded.
	KindModelNotFound       Kind = "model_not_found"      // Named model absent from the registry.
	KindUnsupportedProvider Kind = "unsupported_provider" // Provider type has no adapter.
	KindInvalidRequest      Kind = "invalid_request"      // Request rejected before dispatch.
	KindTransport           Kind = "transport"            // Connection or timeout failure.
	KindProviderRejected    Kind = "provider_rejected"    // Non-2xx HTTP status.
	KindMalformedResponse   Kind = "malformed_response"   // Unexpected payload shape.
	KindInternal            Kind = "internal"             // Anything unclassified.
)

// Error is a classified generation failure. Status and Body are set only for
// KindProviderRejected.
type Error struct {
	Kind   Kind
	Detail string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error of the given kind with a formatted detail. A %w verb
// in format is honored and recorded as the wrapped error.
func Errorf(kind Kind, format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)

	return &Error{
		Kind:   kind,
		Detail: wrapped.Error(),
		Err:    errors.Unwrap(wrapped),
	}
}

// Rejected builds a KindProviderRejected error for an HTTP status and body.
func Rejected(status int, body string) *Error {
	return &Error{
		Kind:   KindProviderRejected,
		Detail: fmt.Sprintf("provider returned HTTP %d: %s", status, body),
		Status: status,
		Body:   body,
	}
}

// KindOf returns the kind of err. Unclassified non-nil errors report
// KindInternal; nil reports the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
