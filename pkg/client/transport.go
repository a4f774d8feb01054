package client

import (
	"net"
	"net/http"
	"time"
)

// TransportConfig holds the connection limits of the HTTP transport.
// The whole exchange is additionally limited by the Client timeout.
type TransportConfig struct {
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
	// ResponseHeaderTimeout 0 means no limit of its own, the Client timeout applies.
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	MaxConnsPerHost       int
}

// DefaultTransportConfig returns limits fitting the DefaultTimeout.
// A single API host is expected, so a few connections are kept open for concurrent calls.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:           3 * time.Second,
		KeepAlive:             10 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: DefaultTimeout,
		IdleConnTimeout:       90 * time.Second,
		MaxConnsPerHost:       8,
	}
}

// NewTransport creates the transport, the proxy is taken from the environment.
func NewTransport(cfg TransportConfig) *http.Transport {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: cfg.KeepAlive}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
	}
}

// DefaultTransport creates the transport with DefaultTransportConfig.
func DefaultTransport() http.RoundTripper {
	return NewTransport(DefaultTransportConfig())
}
