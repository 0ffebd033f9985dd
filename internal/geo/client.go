// File: internal/geo/client.go
package geo

import (
	"net"
	"net/http"
	"time"
)

// Transport tuning for the short, small lookups this package makes. The
// providers are queried one at a time through the pacer, so the pool stays
// tiny.
const (
	defaultDialTimeout         = 5 * time.Second
	defaultKeepAliveInterval   = 30 * time.Second
	defaultTLSHandshakeTimeout = 5 * time.Second
	defaultMaxIdleConns        = 4
	defaultIdleConnTimeout     = 90 * time.Second

	// maxBodyBytes caps provider response reads; lookup payloads are a few
	// hundred bytes, so anything near this limit is garbage.
	maxBodyBytes = 1 << 20
)

// NewHTTPClient builds the shared outbound client for the HTTP providers.
// Individual calls are bounded by per-call context timeouts; the client
// itself only carries connection-level limits.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   defaultDialTimeout,
		KeepAlive: defaultKeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConns,
		IdleConnTimeout:     defaultIdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{Transport: transport}
}
