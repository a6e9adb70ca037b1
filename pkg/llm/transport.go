package llm

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient bounds connecting and waiting for response headers by
// timeout. Reading the body is left to the request context so streamed
// replies are not cut off while tokens are still arriving.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{Transport: transport}
}
