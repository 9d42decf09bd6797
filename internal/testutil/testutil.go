package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"marketscreener/internal/fetch"
)

// MockTransport is a mock implementation of the fetch.Transport interface for
// testing.
type MockTransport struct {
	DoFunc func(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Do implements the Transport interface.
func (m *MockTransport) Do(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	if m.DoFunc != nil {
		return m.DoFunc(ctx, req)
	}
	return &fetch.Response{StatusCode: 200}, nil
}

// NewBodyTransport creates a transport that answers every request with the
// given status and body.
func NewBodyTransport(status int, body string) *MockTransport {
	return &MockTransport{
		DoFunc: func(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
			return &fetch.Response{StatusCode: status, Body: []byte(body)}, nil
		},
	}
}

// WriteMarket lays out a market config plus symbol list under root so the
// descriptor loader can read them. Returns the market config path.
func WriteMarket(t *testing.T, root, code, configJSON string, symbolLines string) string {
	t.Helper()

	marketsDir := filepath.Join(root, "markets")
	if err := os.MkdirAll(marketsDir, 0o755); err != nil {
		t.Fatalf("creating markets dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "symbols"), 0o755); err != nil {
		t.Fatalf("creating symbols dir: %v", err)
	}

	path := filepath.Join(marketsDir, code+".json")
	if err := os.WriteFile(path, []byte(configJSON), 0o644); err != nil {
		t.Fatalf("writing market config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "symbols", code+".csv"), []byte(symbolLines), 0o644); err != nil {
		t.Fatalf("writing symbol list: %v", err)
	}

	return path
}
