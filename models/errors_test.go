package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNormalize_PassesClassifiedErrorsThrough(t *testing.T) {
	orig := UpstreamError("AllCodex", 500, "boom")

	got := Normalize(fmt.Errorf("calling upstream: %w", orig))

	if got.Code != CodeServiceError {
		t.Errorf("expected code %s, got %s", CodeServiceError, got.Code)
	}
	if got.Status != orig.Status {
		t.Errorf("expected status %d, got %d", orig.Status, got.Status)
	}
	if got.Message != orig.Message {
		t.Errorf("expected message %q, got %q", orig.Message, got.Message)
	}
}

func TestNormalize_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
	}{
		{
			name:       "connection refused",
			err:        errors.New(`dial tcp 127.0.0.1:9999: connect: connection refused`),
			wantCode:   CodeUnreachable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "dns failure",
			err:        errors.New(`dial tcp: lookup nosuch.invalid: no such host`),
			wantCode:   CodeUnreachable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "client timeout",
			err:        errors.New(`Get "http://x": context deadline exceeded (Client.Timeout exceeded while awaiting headers)`),
			wantCode:   CodeUnreachable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "generic failure",
			err:        errors.New("something else entirely"),
			wantCode:   CodeServiceError,
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)

			if got.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, got.Code)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, got.Status)
			}
		})
	}
}

func TestNotConfigured(t *testing.T) {
	err := NotConfigured("AllKnower")

	if err.Code != CodeNotConfigured {
		t.Errorf("expected code %s, got %s", CodeNotConfigured, err.Code)
	}
	if err.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", err.Status)
	}
}

func TestUpstreamError_TruncatesBody(t *testing.T) {
	long := make([]byte, 2048)
	for i := range long {
		long[i] = 'x'
	}

	err := UpstreamError("AllCodex", 500, string(long))

	if len(err.Message) > 600 {
		t.Errorf("expected truncated message, got %d bytes", len(err.Message))
	}
}
