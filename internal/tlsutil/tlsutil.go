// Package tlsutil provides the hardened TLS configuration shared by every
// outbound HTTP client in the bridge: probe, reasoner, and execution calls
// all ride transports built here.
package tlsutil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// aeadCipherSuites are the TLS 1.2 suites the bridge accepts. TLS 1.3
// suites are not configurable and are always AEAD.
var aeadCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// DefaultTLSConfig returns the hardened client TLS configuration: TLS 1.2
// minimum with AEAD cipher suites only.
func DefaultTLSConfig() *tls.Config {
	suites := make([]uint16, len(aeadCipherSuites))
	copy(suites, aeadCipherSuites)
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		CipherSuites: suites,
	}
}

// SecureTransport returns an http.Transport carrying DefaultTLSConfig and
// connection limits suited to many small calls against many agents.
func SecureTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		TLSClientConfig:       DefaultTLSConfig(),
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// SecureHTTPClient returns an http.Client over SecureTransport. A zero
// timeout leaves deadlines to the caller's context.
func SecureHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: SecureTransport(),
	}
}
