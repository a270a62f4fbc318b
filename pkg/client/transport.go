package client

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Connection limits of the transports created by this package.
const (
	// DialTimeout limits establishing of a new connection.
	DialTimeout = 3 * time.Second
	// KeepAlive is the interval between keep-alive probes.
	KeepAlive = 10 * time.Second
	// TLSHandshakeTimeout limits the TLS handshake.
	TLSHandshakeTimeout = 5 * time.Second
	// ResponseHeaderTimeout limits waiting for the response headers.
	ResponseHeaderTimeout = 20 * time.Second
	// MaxConnectionsPerHost limits open connections to one host.
	MaxConnectionsPerHost = 32
)

// DefaultTransport is the transport used by client.New.
// HTTP2 is negotiated when the server supports it.
func DefaultTransport() http.RoundTripper {
	dialer := Dialer()
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ResponseHeaderTimeout: ResponseHeaderTimeout,
		MaxConnsPerHost:       MaxConnectionsPerHost,
		MaxIdleConnsPerHost:   MaxConnectionsPerHost,
	}
}

// HTTP2Transport speaks HTTP2 only, without an upgrade from HTTP/1.1.
func HTTP2Transport() http.RoundTripper {
	dialer := Dialer()
	return &http2.Transport{
		DialTLS: func(network, addr string, cfg *tls.Config) (net.Conn, error) {
			return tls.DialWithDialer(dialer, network, addr, cfg)
		},
		ReadIdleTimeout:  3 * time.Second,
		PingTimeout:      3 * time.Second,
		WriteByteTimeout: 3 * time.Second,
	}
}

// Dialer returns the dialer shared by the transports.
func Dialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   DialTimeout,
		KeepAlive: KeepAlive,
	}
}
