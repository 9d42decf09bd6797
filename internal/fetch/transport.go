package fetch

import (
	"context"
	"errors"
	"time"

	"resty.dev/v3"
)

const defaultRequestTimeout = 10 * time.Second

// Response is what a Transport hands back: status plus the raw body. The
// decoder owns all interpretation of the body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport executes one HTTP request. It is an injected collaborator so the
// fetcher and decoder can be tested without real network access.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// RestyTransport is the production Transport, backed by a shared resty
// client. Retries are handled by the fetcher (soft-block detection needs the
// decoded body), so the client itself performs none.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a transport with the given per-request timeout.
// A non-positive timeout selects the default.
func NewRestyTransport(timeout time.Duration) *RestyTransport {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)

	return &RestyTransport{client: client}
}

// Do implements Transport.
func (t *RestyTransport) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		Execute(req.Method, req.URL)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Bytes(),
	}, nil
}

// Close releases the underlying client.
func (t *RestyTransport) Close() error {
	return t.client.Close()
}

// classifyTransportError maps a request-level error onto the fetch taxonomy:
// cancellation becomes NotAttempted, everything else (timeouts, connection
// resets, DNS failures) is transient.
func classifyTransportError(err error) *FetchError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewNotAttempted(err)
	}
	return NewTransportTransient(0, err)
}
