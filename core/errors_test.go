package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusErrorClassification(t *testing.T) {
	cases := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{http.StatusTooManyRequests, ErrRateLimited, true},
		{http.StatusBadRequest, ErrBadRequest, false},
		{http.StatusUnauthorized, ErrBadRequest, false},
		{http.StatusGatewayTimeout, ErrTimeout, true},
		{http.StatusInternalServerError, ErrProviderError, true},
		{http.StatusBadGateway, ErrProviderError, true},
	}
	for _, tc := range cases {
		err := StatusError(KindOpenAI, tc.status, "boom")
		if err.Code != tc.code {
			t.Fatalf("status %d: code = %s, want %s", tc.status, err.Code, tc.code)
		}
		if err.Retryable != tc.retryable {
			t.Fatalf("status %d: retryable = %v, want %v", tc.status, err.Retryable, tc.retryable)
		}
		if err.Status != tc.status {
			t.Fatalf("status not recorded: %d", err.Status)
		}
	}
}

func TestTransportErrorMapsContextErrors(t *testing.T) {
	if err := TransportError(KindGemini, fmt.Errorf("dial: %w", context.Canceled)); !IsCanceled(err) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if err := TransportError(KindGemini, context.DeadlineExceeded); !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	err := TransportError(KindGemini, errors.New("connection reset"))
	if !IsProviderError(err) || !IsRetryable(err) {
		t.Fatalf("expected retryable provider error, got %v", err)
	}
	if !errors.Is(err, err.Unwrap()) {
		t.Fatalf("wrapped error should be reachable")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatalf("nil should not be retryable")
	}
	if IsRetryable(NewError(ErrConfiguration, "missing key")) {
		t.Fatalf("configuration errors are permanent")
	}
	if IsRetryable(NewError(ErrPayload, "bad payload")) {
		t.Fatalf("payload errors are permanent")
	}
	if !IsRetryable(errors.New("plain failure")) {
		t.Fatalf("unknown errors should be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Fatalf("cancellation should not be retried")
	}
}

func TestWrapErrorPassesThrough(t *testing.T) {
	orig := NewError(ErrRateLimited, "slow down", WithProvider(KindGroq))
	wrapped := WrapError(fmt.Errorf("call: %w", orig), ErrProviderError)
	if wrapped != orig {
		t.Fatalf("expected original AIError to be returned")
	}
	if got := orig.Error(); got != "groq: slow down" {
		t.Fatalf("unexpected message %q", got)
	}
}
