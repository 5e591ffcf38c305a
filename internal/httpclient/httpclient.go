// Package httpclient builds the HTTP clients used by backend adapters. All
// adapters share one pooled transport and every client carries a timeout.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds a backend round trip when no timeout is configured.
const DefaultTimeout = 45 * time.Second

var (
	sharedOnce      sync.Once
	sharedTransport *http.Transport
)

// Transport returns the process-wide transport. Only one backend is active
// per process, so a single host-keyed pool suffices.
func Transport() *http.Transport {
	sharedOnce.Do(func() {
		sharedTransport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   15 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          64,
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		}
	})
	return sharedTransport
}

// New returns a client on the shared transport. A non-positive timeout
// means DefaultTimeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout, Transport: Transport()}
}

// Ensure returns client if it already has a timeout, a copy with timeout
// applied if it has none, or a new client when it is nil.
func Ensure(client *http.Client, timeout time.Duration) *http.Client {
	if client == nil {
		return New(timeout)
	}
	if client.Timeout > 0 {
		return client
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clone := *client
	clone.Timeout = timeout
	return &clone
}
