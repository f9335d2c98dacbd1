package gateways

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

const userAgent = "cloudbuild-relay/1.0"

// newHTTPClient builds a client with an explicit connect timeout and an
// overall request timeout
func newHTTPClient(connect, total time.Duration, insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connect

	if insecureSkipVerify {
		//nolint:gosec // G402: opt-in workaround for distribution hosts with broken certificate chains
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   total,
	}
}
