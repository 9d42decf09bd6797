package fetch

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status        int
		wantKind      ErrorKind
		wantRetryable bool
	}{
		{500, KindTransportTransient, true},
		{502, KindTransportTransient, true},
		{503, KindTransportTransient, true},
		{429, KindTransportTransient, true},
		{408, KindTransportTransient, true},
		{400, KindTransportPermanent, false},
		{403, KindTransportPermanent, false},
		{404, KindTransportPermanent, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := ClassifyStatus(tt.status)
			if err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.wantKind)
			}
			if err.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.wantRetryable)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewDecodeMalformed("bad payload")); got != KindDecodeMalformed {
		t.Errorf("KindOf(decode error) = %q, want %q", got, KindDecodeMalformed)
	}

	wrapped := fmt.Errorf("fetching: %w", NewProviderBlocked("marker"))
	if got := KindOf(wrapped); got != KindProviderBlocked {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindProviderBlocked)
	}

	// Unclassified errors stay retryable.
	if got := KindOf(errors.New("socket hiccup")); got != KindTransportTransient {
		t.Errorf("KindOf(plain error) = %q, want %q", got, KindTransportTransient)
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewFieldTypeMismatch("curr", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}
	if err.Field != "curr" {
		t.Errorf("Field = %q, want curr", err.Field)
	}
}
