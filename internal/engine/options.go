package engine

import (
	"net/http"
	"strings"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion pins requests to a versioned API path such as /v1.41. A
// leading "v" is accepted.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.version = strings.TrimPrefix(version, "v")
	}
}

// WithHTTPClient replaces the HTTP client built by NewClient. The client's
// transport is used as given, so unix socket dialing is the caller's job.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}
