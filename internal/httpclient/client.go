// Package httpclient configures the shared HTTP client used by the search
// and fetch services.
package httpclient

import (
	"net/http"
	"time"
)

// NewDefaultHTTPClient creates an HTTP client with a total request timeout
// and a pooled transport sized for a handful of concurrent hosts.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
