package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestNewAlwaysHasTimeout(t *testing.T) {
	if c := New(0); c.Timeout != DefaultTimeout {
		t.Fatalf("zero timeout should use default, got %s", c.Timeout)
	}
	if c := New(-time.Second); c.Timeout != DefaultTimeout {
		t.Fatalf("negative timeout should use default, got %s", c.Timeout)
	}
	if c := New(5 * time.Second); c.Timeout != 5*time.Second {
		t.Fatalf("timeout = %s", c.Timeout)
	}
}

func TestClientsShareTransport(t *testing.T) {
	a, b := New(time.Second), New(time.Minute)
	if a.Transport != b.Transport || a.Transport != http.RoundTripper(Transport()) {
		t.Fatalf("clients should share one transport")
	}
}

func TestEnsure(t *testing.T) {
	custom := &http.Client{}
	got := Ensure(custom, 3*time.Second)
	if got == custom || got.Timeout != 3*time.Second {
		t.Fatalf("expected clone with timeout, got %+v", got)
	}
	if custom.Timeout != 0 {
		t.Fatalf("caller client mutated")
	}
	if Ensure(&http.Client{}, 0).Timeout != DefaultTimeout {
		t.Fatalf("client without timeout should get the default")
	}
	withTimeout := &http.Client{Timeout: time.Second}
	if Ensure(withTimeout, time.Minute) != withTimeout {
		t.Fatalf("client with timeout should be reused")
	}
	if Ensure(nil, 0).Timeout != DefaultTimeout {
		t.Fatalf("nil client should get default timeout")
	}
}
