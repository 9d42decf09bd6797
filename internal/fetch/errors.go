package fetch

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes what went wrong for one symbol during a fetch pass.
type ErrorKind string

const (
	// KindProviderBlocked means the response body carried the market's
	// firewall marker: the provider soft-blocked the request instead of
	// returning data. Retried with backoff.
	KindProviderBlocked ErrorKind = "provider_blocked"
	// KindTransportTransient covers timeouts, connection failures and 5xx
	// responses. Retried with backoff.
	KindTransportTransient ErrorKind = "transport_transient"
	// KindTransportPermanent covers 4xx responses other than 429. Not
	// retried: repeating the same request cannot change the outcome.
	KindTransportPermanent ErrorKind = "transport_permanent"
	// KindFieldTypeMismatch means a mapped token could not be coerced to
	// its declared type. Not retried.
	KindFieldTypeMismatch ErrorKind = "field_type_mismatch"
	// KindDecodeMalformed means the response body did not have the shape
	// the mapping expects. Not retried.
	KindDecodeMalformed ErrorKind = "decode_malformed"
	// KindNotAttempted means the symbol was never dispatched (or its
	// request was cut short) because the caller cancelled the pass.
	KindNotAttempted ErrorKind = "not_attempted"
)

// FetchError is a structured per-symbol fetch failure.
type FetchError struct {
	Kind       ErrorKind
	Retryable  bool
	StatusCode int
	Field      string
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewProviderBlocked creates a soft-block error.
func NewProviderBlocked(marker string) *FetchError {
	return &FetchError{
		Kind:      KindProviderBlocked,
		Retryable: true,
		Message:   fmt.Sprintf("response contains firewall marker %q", marker),
	}
}

// NewTransportTransient creates a retryable transport error.
func NewTransportTransient(statusCode int, cause error) *FetchError {
	return &FetchError{
		Kind:       KindTransportTransient,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "transient transport failure",
		Cause:      cause,
	}
}

// NewTransportPermanent creates a non-retryable transport error.
func NewTransportPermanent(statusCode int) *FetchError {
	return &FetchError{
		Kind:       KindTransportPermanent,
		Retryable:  false,
		StatusCode: statusCode,
		Message:    "request rejected",
	}
}

// NewFieldTypeMismatch creates a coercion error for the named field.
func NewFieldTypeMismatch(field string, cause error) *FetchError {
	return &FetchError{
		Kind:      KindFieldTypeMismatch,
		Retryable: false,
		Field:     field,
		Message:   "value does not match declared type",
		Cause:     cause,
	}
}

// NewDecodeMalformed creates an unusable-payload error.
func NewDecodeMalformed(message string) *FetchError {
	return &FetchError{
		Kind:      KindDecodeMalformed,
		Retryable: false,
		Message:   message,
	}
}

// NewNotAttempted marks a symbol that was never (fully) attempted because the
// pass was cancelled.
func NewNotAttempted(cause error) *FetchError {
	return &FetchError{
		Kind:      KindNotAttempted,
		Retryable: false,
		Message:   "fetch pass cancelled before this symbol completed",
		Cause:     cause,
	}
}

// ClassifyStatus maps a non-2xx HTTP status to a FetchError: 5xx and 429/408
// are transient, other 4xx are permanent.
func ClassifyStatus(statusCode int) *FetchError {
	switch {
	case statusCode >= 500, statusCode == 429, statusCode == 408:
		return NewTransportTransient(statusCode, nil)
	case statusCode >= 400:
		return NewTransportPermanent(statusCode)
	default:
		return &FetchError{
			Kind:       KindTransportPermanent,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code %d", statusCode),
		}
	}
}

// KindOf extracts the ErrorKind from err, defaulting to transient for
// unclassified errors so unknown failures stay retryable.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransportTransient
}
