package fetch

import (
	"testing"

	"marketscreener/internal/descriptor"
)

func testDescriptor() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Code: "cn",
		Snapshot: descriptor.Request{
			Method: "GET",
			URL:    "http://quotes.example.com/q?symbol={symbol}&region={region}",
			Headers: map[string]string{
				"User-Agent": "marketscreener-test",
				"Referer":    "http://quotes.example.com/",
			},
		},
		History: &descriptor.History{
			Request: descriptor.Request{
				Method: "GET",
				URL:    "http://quotes.example.com/h?symbol={symbol}&days={max_days}",
			},
			MaxDays: 320,
		},
	}
}

func TestBuildRequest_Snapshot(t *testing.T) {
	req := BuildRequest(testDescriptor(), "sz000001", Snapshot)

	wantURL := "http://quotes.example.com/q?symbol=sz000001&region=cn"
	if req.URL != wantURL {
		t.Errorf("URL = %q, want %q", req.URL, wantURL)
	}
	if req.Method != "GET" {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if got := req.Headers["User-Agent"]; got != "marketscreener-test" {
		t.Errorf("User-Agent = %q, want %q", got, "marketscreener-test")
	}
	if got := req.Headers["Referer"]; got != "http://quotes.example.com/" {
		t.Errorf("Referer = %q, want %q", got, "http://quotes.example.com/")
	}
}

func TestBuildRequest_History(t *testing.T) {
	req := BuildRequest(testDescriptor(), "sz000001", History)

	wantURL := "http://quotes.example.com/h?symbol=sz000001&days=320"
	if req.URL != wantURL {
		t.Errorf("URL = %q, want %q", req.URL, wantURL)
	}
}

func TestBuildRequest_RepeatedPlaceholder(t *testing.T) {
	d := testDescriptor()
	d.Snapshot.URL = "http://quotes.example.com/{symbol}/detail?q={symbol}"

	req := BuildRequest(d, "sh600000", Snapshot)

	wantURL := "http://quotes.example.com/sh600000/detail?q=sh600000"
	if req.URL != wantURL {
		t.Errorf("URL = %q, want %q", req.URL, wantURL)
	}
}

func TestKind_String(t *testing.T) {
	if got := Snapshot.String(); got != "snapshot" {
		t.Errorf("Snapshot.String() = %q", got)
	}
	if got := History.String(); got != "history" {
		t.Errorf("History.String() = %q", got)
	}
}
